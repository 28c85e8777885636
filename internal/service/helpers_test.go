package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"mangrovewatch/report-api/internal/model"
	"mangrovewatch/report-api/internal/service"
	"mangrovewatch/report-api/internal/store"
	"mangrovewatch/report-api/internal/testutil"
	"mangrovewatch/report-api/pkg/security"

	"github.com/stretchr/testify/require"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock {
	return &clock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type sentMail struct {
	Address, Code, Name string
}

type fakeMailer struct {
	mu   sync.Mutex
	err  error
	sent []sentMail
}

func (m *fakeMailer) SendVerificationEmail(_ context.Context, address, code, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}

	m.sent = append(m.sent, sentMail{address, code, name})
	return nil
}

func (m *fakeMailer) last(t *testing.T) sentMail {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()

	require.NotEmpty(t, m.sent, "no mail was sent")
	return m.sent[len(m.sent)-1]
}

type env struct {
	store    *store.Store
	accounts *service.Accounts
	reports  *service.Reports
	tokens   *security.TokenIssuer
	mailer   *fakeMailer
	clock    *clock
}

func newEnv(t *testing.T, opts service.AccountOptions) *env {
	t.Helper()

	st := store.New(testutil.NewDB(t))
	c := newClock()
	m := &fakeMailer{}
	tokens := security.NewTokenIssuer("test-secret", time.Hour)

	return &env{
		store:    st,
		accounts: service.NewAccounts(st.Users, security.NewWithParams(1024, 1, 1), tokens, service.NewOTPIssuer(0), m, opts).WithClock(c.Now),
		reports:  service.NewReports(st.Reports, nil).WithClock(c.Now),
		tokens:   tokens,
		mailer:   m,
		clock:    c,
	}
}

func (e *env) signup(t *testing.T, name, email string) *model.PublicUser {
	t.Helper()

	res, err := e.accounts.Signup(context.Background(), service.SignupInput{
		Name:     name,
		Mobile:   "+6591234567",
		Email:    email,
		Password: "mangroves4ever",
	})
	require.NoError(t, err)

	return &res.User
}

func (e *env) user(t *testing.T, id string) *model.User {
	t.Helper()

	u, err := e.store.Users.FindByID(context.Background(), id)
	require.NoError(t, err)
	return u
}

type fakePhotos struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
	deleted []string
}

func newFakePhotos() *fakePhotos {
	return &fakePhotos{objects: map[string][]byte{}}
}

func (p *fakePhotos) Put(_ context.Context, key string, data []byte, _ string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.putErr != nil {
		return p.putErr
	}

	p.objects[key] = data
	return nil
}

func (p *fakePhotos) Delete(_ context.Context, key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.objects[key]; !ok {
		return errors.New("no such key")
	}

	delete(p.objects, key)
	p.deleted = append(p.deleted, key)
	return nil
}
