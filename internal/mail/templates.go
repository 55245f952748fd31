package mail

import "html/template"

var funcs = template.FuncMap{
    "inc": func(i int) int { return i + 1 },
}

var bookingTmpl = template.Must(template.New("booking").Funcs(funcs).Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
<div style="max-width: 600px; margin: 0 auto; padding: 20px;">
  <h1>{{if .IsGroup}}Group Booking Confirmed{{else}}Booking Confirmed{{end}}</h1>
  <h2>Hello {{.StudentName}},</h2>
  <p>Your {{if .IsGroup}}group {{end}}booking for <strong>{{.ProgramName}}</strong> at the festival <strong>{{.FestivalName}}</strong> has been confirmed.</p>
  <table>
    <tr><td><b>Program:</b></td><td>{{.ProgramName}}</td></tr>
    <tr><td><b>Festival:</b></td><td>{{.FestivalName}}</td></tr>
    <tr><td><b>College:</b></td><td>{{.CollegeName}}</td></tr>
    <tr><td><b>Date:</b></td><td>{{.ProgramDate}}</td></tr>
    <tr><td><b>Time:</b></td><td>{{.ProgramTime}}</td></tr>
    <tr><td><b>Venue:</b></td><td>{{.Venue}}</td></tr>
    {{- if .IsGroup}}
    <tr><td><b>Group Size:</b></td><td>{{.GroupSize}} members</td></tr>
    {{- end}}
    <tr><td><b>{{if .IsGroup}}Total Price{{else}}Price{{end}}:</b></td><td>{{.Amount}}</td></tr>
  </table>
  {{- if .Members}}
  <h3>Group Members</h3>
  <ol>{{range .Members}}<li>{{.Name}}</li>{{end}}</ol>
  {{- end}}
  <h3>Payment Information</h3>
  <p><b>Transaction ID:</b> {{.TransactionID}}<br><b>Payment Status:</b> {{.PaymentStatus}}</p>
  <p><strong>Please keep this email for your records.</strong></p>
  <p>We look forward to seeing you at the event!</p>
</div>
</body>
</html>`))

var decisionTmpl = template.Must(template.New("decision").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
<p>Dear {{.CollegeName}},</p>
<p>Your festival "{{.FestivalTitle}}" has been {{if .Approved}}approved{{else}}rejected{{end}} by our admin team.</p>
{{- if .Approved}}
<p>Your festival is now live and visible to students. Students can now book programs from your festival.</p>
{{- else}}
<p>Please review your festival details and make the necessary changes before resubmitting.</p>
{{- end}}
</body>
</html>`))
