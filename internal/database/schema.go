package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema holds the table definitions in dependency order.  Statements are
// idempotent, so EnsureSchema can run on every startup; production
// migrations would normally be applied out of band, but a self-bootstrap
// keeps local and test environments trivial to stand up.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		role ENUM('ADMIN','CUSTOMER') NOT NULL DEFAULT 'CUSTOMER',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_users_email (email)
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS movies (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		title VARCHAR(255) NOT NULL,
		description TEXT,
		duration_min INT UNSIGNED NOT NULL,
		genre VARCHAR(100) NOT NULL DEFAULT '',
		poster_url VARCHAR(512) NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS cinemas (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		city VARCHAR(100) NOT NULL DEFAULT '',
		address VARCHAR(512) NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS auditoriums (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		cinema_id BIGINT UNSIGNED NOT NULL,
		name VARCHAR(255) NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		KEY idx_auditoriums_cinema (cinema_id),
		CONSTRAINT fk_auditoriums_cinema FOREIGN KEY (cinema_id) REFERENCES cinemas (id)
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS seats (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		auditorium_id BIGINT UNSIGNED NOT NULL,
		row_label VARCHAR(8) NOT NULL,
		seat_number INT UNSIGNED NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_seats_position (auditorium_id, row_label, seat_number),
		CONSTRAINT fk_seats_auditorium FOREIGN KEY (auditorium_id) REFERENCES auditoriums (id)
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS showtimes (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		movie_id BIGINT UNSIGNED NOT NULL,
		auditorium_id BIGINT UNSIGNED NOT NULL,
		starts_at DATETIME NOT NULL,
		price_cents INT UNSIGNED NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		KEY idx_showtimes_movie (movie_id),
		KEY idx_showtimes_auditorium_starts (auditorium_id, starts_at),
		CONSTRAINT fk_showtimes_movie FOREIGN KEY (movie_id) REFERENCES movies (id),
		CONSTRAINT fk_showtimes_auditorium FOREIGN KEY (auditorium_id) REFERENCES auditoriums (id)
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS bookings (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT UNSIGNED NOT NULL,
		showtime_id BIGINT UNSIGNED NOT NULL,
		status ENUM('pending','paid','cancelled') NOT NULL DEFAULT 'pending',
		total_price_cents INT UNSIGNED NOT NULL,
		payment_method VARCHAR(32) NULL,
		payment_reference VARCHAR(64) NULL,
		paid_at DATETIME NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		KEY idx_bookings_user (user_id),
		KEY idx_bookings_showtime_status (showtime_id, status),
		KEY idx_bookings_status_created (status, created_at),
		UNIQUE KEY uq_bookings_payment_reference (payment_reference),
		CONSTRAINT fk_bookings_user FOREIGN KEY (user_id) REFERENCES users (id),
		CONSTRAINT fk_bookings_showtime FOREIGN KEY (showtime_id) REFERENCES showtimes (id)
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS booking_seats (
		booking_id BIGINT UNSIGNED NOT NULL,
		seat_id BIGINT UNSIGNED NOT NULL,
		PRIMARY KEY (booking_id, seat_id),
		KEY idx_booking_seats_seat (seat_id),
		CONSTRAINT fk_booking_seats_booking FOREIGN KEY (booking_id) REFERENCES bookings (id),
		CONSTRAINT fk_booking_seats_seat FOREIGN KEY (seat_id) REFERENCES seats (id)
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS seat_locks (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		seat_id BIGINT UNSIGNED NOT NULL,
		showtime_id BIGINT UNSIGNED NOT NULL,
		user_id BIGINT UNSIGNED NOT NULL,
		locked_until DATETIME NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_seat_locks_seat_showtime (seat_id, showtime_id),
		KEY idx_seat_locks_expiry (locked_until),
		KEY idx_seat_locks_holder (showtime_id, user_id),
		CONSTRAINT fk_seat_locks_seat FOREIGN KEY (seat_id) REFERENCES seats (id),
		CONSTRAINT fk_seat_locks_showtime FOREIGN KEY (showtime_id) REFERENCES showtimes (id),
		CONSTRAINT fk_seat_locks_user FOREIGN KEY (user_id) REFERENCES users (id)
	) ENGINE=InnoDB`,
}

// EnsureSchema creates any missing tables.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
