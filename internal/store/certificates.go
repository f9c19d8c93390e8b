package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/verte-zerg/ttj/internal/model"
)

const certificateColumns = `c.code, c.user_id, COALESCE(u.name, ''), c.net_wpm, c.accuracy, c.duration_seconds, c.issued_at`

// ReadCertificate returns the user's certificate, or nil when none was issued.
func (s *Store) ReadCertificate(ctx context.Context, userID model.UserID) (*model.Certificate, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+certificateColumns+`
		 FROM certificates c LEFT JOIN users u ON u.id = c.user_id
		 WHERE c.user_id = ?`,
		string(userID))
	cert, err := scanCertificate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return cert, nil
}

// WriteCertificate inserts a new certificate.
// It returns ErrCertificateExists when the user already holds one and ErrCodeTaken on a code collision.
func (s *Store) WriteCertificate(ctx context.Context, c model.Certificate) error {
	if c.IssuedAt.IsZero() {
		c.IssuedAt = s.now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO certificates (code, user_id, net_wpm, accuracy, duration_seconds, issued_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		c.Code, string(c.UserID), c.NetWPM, c.Accuracy, c.DurationSeconds, formatTime(c.IssuedAt))
	switch {
	case isUniqueViolation(err, "certificates.user_id"):
		return ErrCertificateExists
	case isUniqueViolation(err, "certificates.code"):
		return ErrCodeTaken
	}
	return err
}

// CertificateByCode looks up a certificate for verification.
func (s *Store) CertificateByCode(ctx context.Context, code string) (*model.Certificate, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+certificateColumns+`
		 FROM certificates c LEFT JOIN users u ON u.id = c.user_id
		 WHERE c.code = ?`,
		code)
	cert, err := scanCertificate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return cert, nil
}

func scanCertificate(row rowScanner) (*model.Certificate, error) {
	var (
		cert     model.Certificate
		userID   string
		issuedAt string
	)
	if err := row.Scan(&cert.Code, &userID, &cert.UserName, &cert.NetWPM, &cert.Accuracy, &cert.DurationSeconds, &issuedAt); err != nil {
		return nil, err
	}
	parsed, err := parseTime(issuedAt)
	if err != nil {
		return nil, err
	}
	cert.UserID = model.UserID(userID)
	cert.IssuedAt = parsed
	return &cert, nil
}
