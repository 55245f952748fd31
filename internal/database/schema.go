package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema lists the tables in dependency order.  Every statement is
// idempotent so Migrate can run on each start.
var schema = []struct {
	table string
	ddl   string
}{
	{"users", `
CREATE TABLE IF NOT EXISTS users (
	id            BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
	email         VARCHAR(255) NOT NULL,
	username      VARCHAR(120) NOT NULL,
	password_hash VARCHAR(255) NOT NULL,
	role          ENUM('STUDENT','COLLEGE','ADMIN') NOT NULL,
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE KEY uq_users_email (email),
	KEY idx_users_role (role)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
	{"students", `
CREATE TABLE IF NOT EXISTS students (
	user_id      BIGINT UNSIGNED PRIMARY KEY,
	college_name VARCHAR(255) NOT NULL DEFAULT '',
	course       VARCHAR(120) NOT NULL DEFAULT '',
	year         INT NOT NULL DEFAULT 0,
	CONSTRAINT fk_students_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
	{"colleges", `
CREATE TABLE IF NOT EXISTS colleges (
	user_id        BIGINT UNSIGNED PRIMARY KEY,
	name           VARCHAR(255) NOT NULL,
	address        VARCHAR(500) NOT NULL DEFAULT '',
	contact_number VARCHAR(40) NOT NULL DEFAULT '',
	CONSTRAINT fk_colleges_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
	{"festivals", `
CREATE TABLE IF NOT EXISTS festivals (
	id              BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
	college_id      BIGINT UNSIGNED NOT NULL,
	title           VARCHAR(255) NOT NULL,
	description     TEXT NOT NULL,
	start_date      DATE NOT NULL,
	end_date        DATE NOT NULL,
	image_url       VARCHAR(1000) NULL,
	approval_status ENUM('PENDING','APPROVED','REJECTED') NOT NULL DEFAULT 'PENDING',
	is_public       BOOLEAN NOT NULL DEFAULT FALSE,
	created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	KEY idx_festivals_status (approval_status, is_public),
	CONSTRAINT fk_festivals_college FOREIGN KEY (college_id) REFERENCES users(id),
	CONSTRAINT chk_festivals_public CHECK (is_public = (approval_status = 'APPROVED'))
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
	{"programs", `
CREATE TABLE IF NOT EXISTS programs (
	id                 BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
	festival_id        BIGINT UNSIGNED NOT NULL,
	title              VARCHAR(255) NOT NULL,
	description        TEXT NOT NULL,
	type               VARCHAR(40) NOT NULL DEFAULT 'OTHER',
	program_date       DATE NOT NULL,
	program_time       VARCHAR(40) NOT NULL DEFAULT '',
	venue              VARCHAR(255) NOT NULL DEFAULT '',
	booking_mode       ENUM('solo','group') NOT NULL DEFAULT 'solo',
	seat_limit         INT UNSIGNED NOT NULL DEFAULT 0,
	team_limit         INT UNSIGNED NULL,
	max_group_members  INT UNSIGNED NULL,
	ticket_price_cents INT UNSIGNED NOT NULL DEFAULT 0,
	booked_units       INT UNSIGNED NOT NULL DEFAULT 0,
	created_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	KEY idx_programs_festival (festival_id),
	CONSTRAINT fk_programs_festival FOREIGN KEY (festival_id) REFERENCES festivals(id) ON DELETE CASCADE
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
	{"bookings", `
CREATE TABLE IF NOT EXISTS bookings (
	id                 BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
	student_id         BIGINT UNSIGNED NOT NULL,
	program_id         BIGINT UNSIGNED NOT NULL,
	is_group           BOOLEAN NOT NULL DEFAULT FALSE,
	group_size         INT UNSIGNED NOT NULL DEFAULT 1,
	units              INT UNSIGNED NOT NULL DEFAULT 1,
	payment_status     ENUM('PENDING','PAID') NOT NULL,
	payment_ref        VARCHAR(100) NULL,
	order_id           VARCHAR(100) NULL,
	total_amount_cents INT UNSIGNED NOT NULL DEFAULT 0,
	student_name       VARCHAR(120) NOT NULL,
	student_email      VARCHAR(255) NOT NULL,
	program_name       VARCHAR(255) NOT NULL,
	program_type       VARCHAR(40) NOT NULL,
	festival_name      VARCHAR(255) NOT NULL,
	college_name       VARCHAR(255) NOT NULL,
	program_date       DATE NOT NULL,
	program_time       VARCHAR(40) NOT NULL,
	venue              VARCHAR(255) NOT NULL,
	ticket_price_cents INT UNSIGNED NOT NULL DEFAULT 0,
	created_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE KEY uq_bookings_student_program (student_id, program_id),
	KEY idx_bookings_program (program_id),
	CONSTRAINT fk_bookings_student FOREIGN KEY (student_id) REFERENCES users(id),
	CONSTRAINT fk_bookings_program FOREIGN KEY (program_id) REFERENCES programs(id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
	{"group_members", `
CREATE TABLE IF NOT EXISTS group_members (
	id         BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
	booking_id BIGINT UNSIGNED NOT NULL,
	name       VARCHAR(120) NOT NULL,
	email      VARCHAR(255) NULL,
	phone      VARCHAR(40) NULL,
	KEY idx_group_members_booking (booking_id),
	CONSTRAINT fk_group_members_booking FOREIGN KEY (booking_id) REFERENCES bookings(id) ON DELETE CASCADE
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
	{"reviews", `
CREATE TABLE IF NOT EXISTS reviews (
	id         BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
	program_id BIGINT UNSIGNED NOT NULL,
	student_id BIGINT UNSIGNED NOT NULL,
	rating     TINYINT UNSIGNED NOT NULL,
	comment    TEXT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE KEY uq_reviews_program_student (program_id, student_id),
	CONSTRAINT fk_reviews_program FOREIGN KEY (program_id) REFERENCES programs(id) ON DELETE CASCADE,
	CONSTRAINT fk_reviews_student FOREIGN KEY (student_id) REFERENCES users(id),
	CONSTRAINT chk_reviews_rating CHECK (rating BETWEEN 1 AND 5)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
}

// Migrate creates any missing tables.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, s := range schema {
		if _, err := db.ExecContext(ctx, s.ddl); err != nil {
			return fmt.Errorf("failed to create %s table: %w", s.table, err)
		}
	}
	return nil
}
