// Package certificate decides certificate eligibility and issues certificates.
package certificate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/verte-zerg/ttj/internal/model"
	"github.com/verte-zerg/ttj/internal/store"
)

const (
	// RequiredLessons is the number of completed lessons needed.
	RequiredLessons = 5
	// QualifyingDuration is the only timed test length that counts, in seconds.
	QualifyingDuration = 60
	// MinNetWPM is the net speed a qualifying attempt needs.
	MinNetWPM = 35
	// MinAccuracy is the accuracy a qualifying attempt needs on the same attempt.
	MinAccuracy = 95.0

	// CodePrefix starts every certificate code.
	CodePrefix = "TTJ-"
	codeLength = 6

	maxCodeAttempts = 5
)

// ErrCodeExhausted is returned when no free code was found.
var ErrCodeExhausted = errors.New("certificate: could not allocate a unique code")

// Store is the persistence the evaluator needs.
type Store interface {
	CountCompletedLessons(ctx context.Context, userID model.UserID) (int, error)
	QueryQualifyingTests(ctx context.Context, userID model.UserID, durationSeconds, minNetWPM int, minAccuracy float64) ([]model.QualifyingTest, error)
	ReadCertificate(ctx context.Context, userID model.UserID) (*model.Certificate, error)
	WriteCertificate(ctx context.Context, c model.Certificate) error
	CertificateByCode(ctx context.Context, code string) (*model.Certificate, error)
}

// Eligibility is a fresh evaluation of the certificate requirements.
type Eligibility struct {
	Eligible         bool
	CompletedLessons int
	// Best is the selected qualifying attempt; nil when there is none.
	Best *model.QualifyingTest
}

// LessonsMissing returns how many more lessons must be completed.
func (e Eligibility) LessonsMissing() int {
	return max(0, RequiredLessons-e.CompletedLessons)
}

// IssueOutcome is the result of Evaluator.Issue.
type IssueOutcome struct {
	Reason      model.Reason
	Err         error
	Certificate *model.Certificate
	// Existing is set when the certificate had been issued before this call.
	Existing    bool
	Eligibility Eligibility
}

// OK reports whether a certificate is available.
func (o IssueOutcome) OK() bool {
	return o.Reason == model.ReasonNone && o.Certificate != nil
}

// Evaluator checks eligibility and mints certificates.
type Evaluator struct {
	store   Store
	log     logrus.FieldLogger
	newCode func() string
	now     func() time.Time
}

// Option customizes an Evaluator.
type Option func(*Evaluator)

// WithCodeGenerator replaces the random code source.
func WithCodeGenerator(fn func() string) Option {
	return func(e *Evaluator) {
		e.newCode = fn
	}
}

// WithClock replaces the issuance clock.
func WithClock(now func() time.Time) Option {
	return func(e *Evaluator) {
		e.now = now
	}
}

// NewEvaluator returns an evaluator backed by st.
func NewEvaluator(st Store, log logrus.FieldLogger, opts ...Option) *Evaluator {
	if log == nil {
		log = logrus.StandardLogger()
	}
	e := &Evaluator{store: st, log: log, newCode: NewCode, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewCode returns a code such as TTJ-3F9A0C drawn from a random UUID.
func NewCode() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return CodePrefix + strings.ToUpper(raw[:codeLength])
}

// NormalizeCode trims and upper-cases a user supplied code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Check evaluates eligibility from stored lesson and test data.
func (e *Evaluator) Check(ctx context.Context, userID model.UserID) (Eligibility, error) {
	completed, err := e.store.CountCompletedLessons(ctx, userID)
	if err != nil {
		return Eligibility{}, fmt.Errorf("count completed lessons: %w", err)
	}
	tests, err := e.store.QueryQualifyingTests(ctx, userID, QualifyingDuration, MinNetWPM, MinAccuracy)
	if err != nil {
		return Eligibility{}, fmt.Errorf("query qualifying tests: %w", err)
	}
	out := Eligibility{CompletedLessons: completed}
	if best, ok := SelectBest(tests); ok {
		out.Best = &best
	}
	out.Eligible = completed >= RequiredLessons && out.Best != nil
	return out, nil
}

// SelectBest picks the attempt with the highest net WPM, then the highest accuracy.
// Attempts below the thresholds are ignored.
func SelectBest(tests []model.QualifyingTest) (model.QualifyingTest, bool) {
	candidates := lo.Filter(tests, func(t model.QualifyingTest, _ int) bool {
		return t.NetWPM >= MinNetWPM && t.Accuracy >= MinAccuracy
	})
	if len(candidates) == 0 {
		return model.QualifyingTest{}, false
	}
	return lo.MaxBy(candidates, func(a, b model.QualifyingTest) bool {
		return model.Improves(a.NetWPM, a.Accuracy, b.NetWPM, b.Accuracy)
	}), true
}

// Issue returns the user's certificate, minting it if the user is eligible.
// An existing certificate is returned without re-evaluating eligibility.
func (e *Evaluator) Issue(ctx context.Context, user *model.UserID) IssueOutcome {
	if user == nil {
		return IssueOutcome{Reason: model.ReasonUnauthenticated}
	}
	log := e.log.WithField("user", string(*user))

	existing, err := e.store.ReadCertificate(ctx, *user)
	if err != nil {
		log.WithError(err).Error("read certificate")
		return IssueOutcome{Reason: model.ReasonDBError, Err: err}
	}
	if existing != nil {
		return IssueOutcome{Certificate: existing, Existing: true}
	}

	elig, err := e.Check(ctx, *user)
	if err != nil {
		log.WithError(err).Error("check eligibility")
		return IssueOutcome{Reason: model.ReasonDBError, Err: err}
	}
	if !elig.Eligible {
		return IssueOutcome{Reason: model.ReasonNotEligible, Eligibility: elig}
	}

	cert := model.Certificate{
		UserID:          *user,
		NetWPM:          elig.Best.NetWPM,
		Accuracy:        elig.Best.Accuracy,
		DurationSeconds: QualifyingDuration,
		IssuedAt:        e.now().UTC(),
	}
	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		cert.Code = e.newCode()
		err := e.store.WriteCertificate(ctx, cert)
		switch {
		case err == nil:
			log.WithFields(logrus.Fields{"code": cert.Code, "net_wpm": cert.NetWPM, "accuracy": cert.Accuracy}).Info("certificate issued")
			return e.reload(ctx, log, *user, cert, false, elig)
		case errors.Is(err, store.ErrCodeTaken):
			log.WithField("attempt", attempt).Debug("certificate code collision")
			continue
		case errors.Is(err, store.ErrCertificateExists):
			return e.reload(ctx, log, *user, cert, true, elig)
		default:
			log.WithError(err).Error("write certificate")
			return IssueOutcome{Reason: model.ReasonDBError, Err: err, Eligibility: elig}
		}
	}
	log.Warn("certificate code collisions exhausted")
	return IssueOutcome{Reason: model.ReasonDBError, Err: ErrCodeExhausted, Eligibility: elig}
}

// reload fetches the stored certificate so the caller sees the persisted record.
func (e *Evaluator) reload(ctx context.Context, log logrus.FieldLogger, userID model.UserID, written model.Certificate, existing bool, elig Eligibility) IssueOutcome {
	stored, err := e.store.ReadCertificate(ctx, userID)
	if err != nil {
		log.WithError(err).Error("reload certificate")
		return IssueOutcome{Reason: model.ReasonDBError, Err: err, Eligibility: elig}
	}
	if stored == nil {
		if existing {
			return IssueOutcome{Reason: model.ReasonDBError, Err: store.ErrNotFound, Eligibility: elig}
		}
		stored = &written
	}
	return IssueOutcome{Certificate: stored, Existing: existing, Eligibility: elig}
}

// Verify looks up a certificate by code. It returns store.ErrNotFound when none matches.
func (e *Evaluator) Verify(ctx context.Context, code string) (*model.Certificate, error) {
	code = NormalizeCode(code)
	if code == "" {
		return nil, store.ErrNotFound
	}
	return e.store.CertificateByCode(ctx, code)
}
