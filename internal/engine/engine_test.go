package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ashureev/peerbot/internal/domain"
	"github.com/ashureev/peerbot/internal/membership"
	"github.com/ashureev/peerbot/internal/session"
)

// fakeRepo is an in-memory store.Repository for engine tests.
type fakeRepo struct {
	mu         sync.Mutex
	people     []*domain.Person
	roles      []string
	levels     []string
	nextID     int64
	failUpsert bool
}

func newFakeRepo(people ...*domain.Person) *fakeRepo {
	r := &fakeRepo{levels: []string{"Junior", "Middle", "Senior"}}
	for _, p := range people {
		r.nextID++
		p.ID = r.nextID
		r.people = append(r.people, p)
		r.ensure(&r.roles, p.Role)
		r.ensure(&r.levels, p.Level)
	}
	return r
}

func (r *fakeRepo) ensure(list *[]string, name string) {
	for _, v := range *list {
		if v == name {
			return
		}
	}
	*list = append(*list, name)
}

func (r *fakeRepo) FindPersonByTelegramID(_ context.Context, telegramID int64) (*domain.Person, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.people {
		if p.TelegramID == telegramID {
			return p, nil
		}
	}
	return nil, nil
}

func (r *fakeRepo) FindPersonBySchool21Nick(_ context.Context, nick string) (*domain.Person, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.people {
		if p.School21Nick == nick {
			return p, nil
		}
	}
	return nil, nil
}

func (r *fakeRepo) FindPersonByTelegramNick(_ context.Context, nick string) (*domain.Person, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.people {
		if p.TelegramNick == nick {
			return p, nil
		}
	}
	return nil, nil
}

func (r *fakeRepo) UpsertPerson(_ context.Context, person *domain.Person) (*domain.Person, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failUpsert {
		return nil, fmt.Errorf("upsert person: %w", domain.ErrPersistence)
	}
	r.ensure(&r.roles, person.Role)
	r.ensure(&r.levels, person.Level)
	for i, p := range r.people {
		if p.TelegramID == person.TelegramID || p.TelegramNick == person.TelegramNick {
			person.ID = p.ID
			person.RegistrationDate = p.RegistrationDate
			r.people[i] = person
			return person, nil
		}
	}
	r.nextID++
	person.ID = r.nextID
	person.RegistrationDate = time.Now()
	r.people = append(r.people, person)
	return person, nil
}

func (r *fakeRepo) SetInviteSent(_ context.Context, telegramID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.people {
		if p.TelegramID == telegramID {
			p.InviteSent = true
			return nil
		}
	}
	return domain.ErrPersistence
}

func (r *fakeRepo) SetMember(_ context.Context, telegramID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.people {
		if p.TelegramID == telegramID {
			p.IsMember = true
			return nil
		}
	}
	return domain.ErrPersistence
}

func (r *fakeRepo) ListTeams(_ context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var teams []string
	seen := map[string]bool{}
	for _, p := range r.people {
		if !seen[p.Team] {
			seen[p.Team] = true
			teams = append(teams, p.Team)
		}
	}
	return teams, nil
}

func (r *fakeRepo) ListRoles(_ context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.roles...), nil
}

func (r *fakeRepo) ListLevels(_ context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.levels...), nil
}

func (r *fakeRepo) EnsureRole(_ context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ensure(&r.roles, name)
	return nil
}

func (r *fakeRepo) EnsureLevel(_ context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ensure(&r.levels, name)
	return nil
}

func (r *fakeRepo) SearchByRoleLevel(_ context.Context, role, level string) ([]*domain.Person, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Person
	for _, p := range r.people {
		if p.Role == role && (level == domain.LevelAny || p.Level == level) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeRepo) SearchByTeam(_ context.Context, team string) ([]*domain.Person, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Person
	for _, p := range r.people {
		if p.Team == team {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeRepo) SearchByNickname(_ context.Context, substring string) ([]*domain.Person, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	needle := strings.ToLower(substring)
	var out []*domain.Person
	for _, p := range r.people {
		for _, nick := range []string{p.TelegramNick, p.SberchatNick, p.School21Nick} {
			if strings.Contains(strings.ToLower(nick), needle) {
				out = append(out, p)
				break
			}
		}
	}
	return out, nil
}

func (r *fakeRepo) Ping(context.Context) error { return nil }
func (r *fakeRepo) Close() error               { return nil }

// Session persistence goes through session.Memory in these tests; the
// repository-side methods are unused stubs.
func (r *fakeRepo) LoadSession(context.Context, int64) (*domain.Session, error) { return nil, nil }
func (r *fakeRepo) SaveSession(context.Context, *domain.Session) error          { return nil }
func (r *fakeRepo) DeleteSession(context.Context, int64) error                  { return nil }
func (r *fakeRepo) CleanupExpiredSessions(context.Context, time.Duration) (int64, error) {
	return 0, nil
}

type testBot struct {
	engine   *Engine
	repo     *fakeRepo
	group    *membership.Static
	sessions *session.Memory
}

func newTestBot(_ *testing.T, people ...*domain.Person) *testBot {
	repo := newFakeRepo(people...)
	group := membership.NewStatic("")
	sessions := session.NewMemory()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &testBot{
		engine:   New(repo, sessions, group, DefaultPageSize, logger),
		repo:     repo,
		group:    group,
		sessions: sessions,
	}
}

func (b *testBot) text(userID int64, payload string) []Effect {
	return b.engine.HandleEvent(context.Background(), Event{UserID: userID, Kind: KindText, Payload: payload})
}

func (b *testBot) choose(userID int64, token string) []Effect {
	return b.engine.HandleEvent(context.Background(), Event{UserID: userID, Kind: KindChoice, Payload: token})
}

func (b *testBot) session(t *testing.T, userID int64) *domain.Session {
	t.Helper()
	sess, err := b.sessions.LoadSession(context.Background(), userID)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	if sess == nil {
		t.Fatalf("no session for user %d", userID)
	}
	return sess
}

func registeredMember(telegramID int64, s21, tg, team, role, level string) *domain.Person {
	return &domain.Person{
		TelegramID:   telegramID,
		School21Nick: s21,
		SberchatNick: s21,
		TelegramNick: tg,
		Team:         team,
		Role:         role,
		Level:        level,
		Project:      domain.ProjectNotSet,
		IsMember:     true,
	}
}

func lastMessage(t *testing.T, effects []Effect) string {
	t.Helper()
	if len(effects) == 0 {
		t.Fatal("no effects returned")
	}
	return effects[len(effects)-1].Message
}

func choiceTokens(effects []Effect) []string {
	var tokens []string
	for _, eff := range effects {
		for _, c := range eff.Choices {
			tokens = append(tokens, c.Token)
		}
	}
	return tokens
}

func hasToken(effects []Effect, token string) bool {
	for _, got := range choiceTokens(effects) {
		if got == token {
			return true
		}
	}
	return false
}
