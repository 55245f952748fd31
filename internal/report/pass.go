package report

import (
    "bytes"
    "crypto/hmac"
    "crypto/sha256"
    "encoding/base64"
    "fmt"
    "strconv"
    "strings"

    "github.com/phpdave11/gofpdf"
    "github.com/skip2/go-qrcode"

    "github.com/iliyamo/festival-booking/internal/model"
)

const passPrefix = "FESTPASS"

// PassSigner signs the QR payload printed on a booking pass so door
// staff can verify it offline.
type PassSigner struct {
    Secret []byte
}

func NewPassSigner(secret string) PassSigner { return PassSigner{Secret: []byte(secret)} }

func (s PassSigner) sign(data string) string {
    h := hmac.New(sha256.New, s.Secret)
    h.Write([]byte(data))
    return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}

// Payload returns FESTPASS|booking|program|student|signature.
func (s PassSigner) Payload(b model.Booking) string {
    data := fmt.Sprintf("%s|%d|%d|%d", passPrefix, b.ID, b.ProgramID, b.StudentID)
    return data + "|" + s.sign(data)
}

// Verify checks a scanned payload and returns the booking id it names.
func (s PassSigner) Verify(payload string) (uint64, bool) {
    i := strings.LastIndexByte(payload, '|')
    if i < 0 {
        return 0, false
    }
    data, sig := payload[:i], payload[i+1:]
    if !hmac.Equal([]byte(sig), []byte(s.sign(data))) {
        return 0, false
    }
    parts := strings.Split(data, "|")
    if len(parts) != 4 || parts[0] != passPrefix {
        return 0, false
    }
    id, err := strconv.ParseUint(parts[1], 10, 64)
    if err != nil {
        return 0, false
    }
    return id, true
}

// RenderPass draws a one-page A4 pass with the booking snapshot and a
// signed QR code.
func (s PassSigner) RenderPass(b model.Booking, members []model.GroupMember) ([]byte, error) {
    png, err := qrcode.Encode(s.Payload(b), qrcode.Medium, 256)
    if err != nil {
        return nil, fmt.Errorf("qr encode: %w", err)
    }

    pdf := gofpdf.New("P", "mm", "A4", "")
    tr := pdf.UnicodeTranslatorFromDescriptor("")
    pdf.AddPage()
    pdf.SetFont("Arial", "B", 18)
    pdf.Cell(0, 12, tr(b.Snapshot.FestivalName))
    pdf.Ln(12)
    pdf.SetFont("Arial", "B", 14)
    pdf.Cell(0, 10, tr(b.Snapshot.ProgramName))
    pdf.Ln(14)

    pdf.SetFont("Arial", "", 12)
    kind := "Solo"
    if b.IsGroup {
        kind = fmt.Sprintf("Group of %d", b.GroupSize)
    }
    lines := [][2]string{
        {"Booking", "#" + strconv.FormatUint(b.ID, 10)},
        {"Name", b.Snapshot.StudentName},
        {"College", b.Snapshot.CollegeName},
        {"Type", b.Snapshot.ProgramType},
        {"Date", b.Snapshot.ProgramDate.Format(dateLayout)},
        {"Time", b.Snapshot.ProgramTime},
        {"Venue", b.Snapshot.Venue},
        {"Booking type", kind},
        {"Payment", string(b.PaymentStatus)},
    }
    if b.PaymentRef != nil {
        lines = append(lines, [2]string{"Transaction", *b.PaymentRef})
    }
    for _, l := range lines {
        pdf.CellFormat(40, 8, l[0]+":", "", 0, "L", false, 0, "")
        pdf.CellFormat(0, 8, tr(l[1]), "", 1, "L", false, 0, "")
    }
    if len(members) > 0 {
        pdf.Ln(4)
        pdf.SetFont("Arial", "B", 12)
        pdf.Cell(0, 8, "Group members")
        pdf.Ln(8)
        pdf.SetFont("Arial", "", 12)
        for i, m := range members {
            pdf.Cell(0, 7, tr(fmt.Sprintf("%d. %s", i+1, m.Name)))
            pdf.Ln(7)
        }
    }

    opts := gofpdf.ImageOptions{ImageType: "PNG"}
    pdf.RegisterImageOptionsReader("qr", opts, bytes.NewReader(png))
    pdf.ImageOptions("qr", 150, 40, 45, 45, false, opts, 0, "")

    var buf bytes.Buffer
    if err := pdf.Output(&buf); err != nil {
        return nil, fmt.Errorf("render pdf: %w", err)
    }
    return buf.Bytes(), nil
}
