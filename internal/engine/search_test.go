package engine

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/ashureev/peerbot/internal/domain"
)

const seekerID int64 = 9001

// seeker is the registered, confirmed member driving the searches.
func seekerPerson() *domain.Person {
	return registeredMember(seekerID, "seeker", "seeker_tg", "TeamZ", "Engineer", "Middle")
}

func newSearchBot(t *testing.T, people ...*domain.Person) *testBot {
	t.Helper()
	b := newTestBot(t, append([]*domain.Person{seekerPerson()}, people...)...)
	b.group.Add(seekerID)
	return b
}

func TestCriteriaGateRequiresRegistration(t *testing.T) {
	b := newTestBot(t)
	effects := b.choose(testUserID, TokenContinue)
	if got := lastMessage(t, effects); got != msgCompleteAuth {
		t.Fatalf("got %q, want auth prompt", got)
	}
	if !hasToken(effects, TokenAuthenticate) {
		t.Fatal("no authenticate choice offered")
	}
	if sess := b.session(t, testUserID); sess.State != StateCriteriaSelect {
		t.Errorf("state = %s, want %s", sess.State, StateCriteriaSelect)
	}
}

func TestCriteriaGateRequiresMembership(t *testing.T) {
	b := newTestBot(t, seekerPerson()) // registered but not in the group

	effects := b.choose(seekerID, TokenContinue)
	msg := lastMessage(t, effects)
	if !strings.Contains(msg, "https://t.me/+") {
		t.Fatalf("got %q, want invite link message", msg)
	}
	person, _ := b.repo.FindPersonByTelegramID(context.Background(), seekerID)
	if !person.InviteSent {
		t.Error("invite_sent not recorded")
	}
	if sess := b.session(t, seekerID); sess.State != StateCriteriaSelect {
		t.Errorf("state = %s, want to stay at the gate", sess.State)
	}

	// Joining and retrying passes the gate.
	b.group.Add(seekerID)
	effects = b.choose(seekerID, TokenContinue)
	if got := lastMessage(t, effects); got != msgChooseCriteria {
		t.Fatalf("after joining: got %q, want criteria menu", got)
	}
	for _, token := range []string{TokenSearchByRole, TokenSearchByTeam, TokenSearchByNickname} {
		if !hasToken(effects, token) {
			t.Errorf("criteria menu missing %s", token)
		}
	}
}

func TestSearchByRoleAndLevel(t *testing.T) {
	b := newSearchBot(t,
		registeredMember(1, "alpha", "alpha_tg", "TeamA", "Engineer", "Junior"),
		registeredMember(2, "bravo", "bravo_tg", "TeamA", "Engineer", "Senior"),
		registeredMember(3, "charlie", "charlie_tg", "TeamB", "Designer", "Senior"),
	)
	b.choose(seekerID, TokenContinue)
	b.choose(seekerID, TokenSearchByRole)
	effects := b.choose(seekerID, prefixRole+"Engineer")
	if !hasToken(effects, prefixLevel+domain.LevelAny) {
		t.Fatalf("level keyboard missing the any-level option, tokens %v", choiceTokens(effects))
	}

	t.Run("specific level", func(t *testing.T) {
		effects := b.choose(seekerID, prefixLevel+"Senior")
		tokens := choiceTokens(effects)
		if !hasToken(effects, prefixPerson+"bravo_tg") {
			t.Errorf("missing matching person, tokens %v", tokens)
		}
		if hasToken(effects, prefixPerson+"alpha_tg") || hasToken(effects, prefixPerson+"charlie_tg") {
			t.Errorf("level filter leaked other people, tokens %v", tokens)
		}
		if sess := b.session(t, seekerID); sess.State != StateResultsList {
			t.Errorf("state = %s, want %s", sess.State, StateResultsList)
		}
	})

	t.Run("any level", func(t *testing.T) {
		b.choose(seekerID, tokenBackToCriteria)
		b.choose(seekerID, TokenSearchByRole)
		b.choose(seekerID, prefixRole+"Engineer")
		effects := b.choose(seekerID, prefixLevel+domain.LevelAny)
		if !hasToken(effects, prefixPerson+"alpha_tg") || !hasToken(effects, prefixPerson+"bravo_tg") {
			t.Errorf("any-level search must union all levels, tokens %v", choiceTokens(effects))
		}
		if hasToken(effects, prefixPerson+"charlie_tg") {
			t.Errorf("other role leaked into results, tokens %v", choiceTokens(effects))
		}
	})
}

func TestSearchByRoleNobodyFound(t *testing.T) {
	b := newSearchBot(t,
		registeredMember(1, "alpha", "alpha_tg", "TeamA", "Engineer", "Junior"),
	)
	b.choose(seekerID, TokenContinue)
	b.choose(seekerID, TokenSearchByRole)
	b.choose(seekerID, prefixRole+"Engineer")
	effects := b.choose(seekerID, prefixLevel+"Senior")
	if got := lastMessage(t, effects); !strings.Contains(got, "никого не нашлось") {
		t.Fatalf("got %q, want nobody-found message", got)
	}
	// The user stays put and can pick a different level.
	if sess := b.session(t, seekerID); sess.State != StateLevelSelect {
		t.Errorf("state = %s, want %s", sess.State, StateLevelSelect)
	}
	if !hasToken(effects, tokenBackToLevel) || !hasToken(effects, tokenBackToCriteria) {
		t.Errorf("no way back offered, tokens %v", choiceTokens(effects))
	}
}

func TestSearchByTeam(t *testing.T) {
	b := newSearchBot(t,
		registeredMember(1, "alpha", "alpha_tg", "TeamA", "Engineer", "Junior"),
		registeredMember(2, "bravo", "bravo_tg", "TeamA", "Designer", "Senior"),
	)
	b.choose(seekerID, TokenContinue)
	effects := b.choose(seekerID, TokenSearchByTeam)
	if !hasToken(effects, prefixTeam+"TeamA") {
		t.Fatalf("team list missing TeamA, tokens %v", choiceTokens(effects))
	}

	effects = b.choose(seekerID, prefixTeam+"TeamA")
	if !hasToken(effects, prefixPerson+"alpha_tg") || !hasToken(effects, prefixPerson+"bravo_tg") {
		t.Errorf("team results incomplete, tokens %v", choiceTokens(effects))
	}

	// A team nobody belongs to keeps the user in the selection state.
	b.choose(seekerID, tokenBackToTeam)
	effects = b.choose(seekerID, prefixTeam+"Ghosts")
	if got := lastMessage(t, effects); got != msgNobodyWithTeam("Ghosts") {
		t.Fatalf("got %q, want empty-team message", got)
	}
	if sess := b.session(t, seekerID); sess.State != StateTeamSelect {
		t.Errorf("state = %s, want %s", sess.State, StateTeamSelect)
	}
}

func TestSearchByNicknameIsCaseInsensitive(t *testing.T) {
	b := newSearchBot(t,
		registeredMember(1, "alpha", "Ivanov_TG", "TeamA", "Engineer", "Junior"),
		registeredMember(2, "IVANOVNA", "bravo_tg", "TeamA", "Designer", "Senior"),
		registeredMember(3, "charlie", "charlie_tg", "TeamB", "Engineer", "Middle"),
	)
	b.choose(seekerID, TokenContinue)
	effects := b.choose(seekerID, TokenSearchByNickname)
	if got := lastMessage(t, effects); got != msgEnterPeerNickname {
		t.Fatalf("got %q, want nickname prompt", got)
	}

	effects = b.text(seekerID, "ivanov")
	if !hasToken(effects, prefixPerson+"Ivanov_TG") {
		t.Errorf("telegram handle match missed, tokens %v", choiceTokens(effects))
	}
	if !hasToken(effects, prefixPerson+"bravo_tg") {
		t.Errorf("school21 nick match missed, tokens %v", choiceTokens(effects))
	}
	if hasToken(effects, prefixPerson+"charlie_tg") {
		t.Errorf("non-match leaked, tokens %v", choiceTokens(effects))
	}
}

func TestSearchByNicknameNoResults(t *testing.T) {
	b := newSearchBot(t)
	b.choose(seekerID, TokenContinue)
	b.choose(seekerID, TokenSearchByNickname)

	effects := b.text(seekerID, "nosuchnick")
	if got := lastMessage(t, effects); got != msgNoNicknameSearchResults {
		t.Fatalf("got %q, want no-results message", got)
	}
	if sess := b.session(t, seekerID); sess.State != StateNicknameInput {
		t.Errorf("state = %s, want %s", sess.State, StateNicknameInput)
	}
}

func TestResultsPagination(t *testing.T) {
	people := make([]*domain.Person, 0, 23)
	for i := 0; i < 23; i++ {
		people = append(people, registeredMember(
			int64(100+i),
			fmt.Sprintf("peer%02d", i),
			fmt.Sprintf("peer%02d_tg", i),
			"BigTeam", "Engineer", "Junior",
		))
	}
	b := newSearchBot(t, people...)
	b.choose(seekerID, TokenContinue)
	b.choose(seekerID, TokenSearchByTeam)

	effects := b.choose(seekerID, prefixTeam+"BigTeam")
	if n := countPersonChoices(effects); n != 10 {
		t.Fatalf("page 0: %d person buttons, want 10", n)
	}
	if hasToken(effects, tokenPrev) {
		t.Error("page 0 offers prev")
	}
	if !hasToken(effects, tokenNext) {
		t.Error("page 0 missing next")
	}

	b.choose(seekerID, tokenNext)
	effects = b.choose(seekerID, tokenNext)
	if n := countPersonChoices(effects); n != 3 {
		t.Fatalf("page 2: %d person buttons, want 3", n)
	}
	if !hasToken(effects, tokenPrev) || hasToken(effects, tokenNext) {
		t.Errorf("page 2 navigation wrong, tokens %v", choiceTokens(effects))
	}

	// A stray extra "next" clamps to the last page instead of failing.
	effects = b.choose(seekerID, tokenNext)
	if n := countPersonChoices(effects); n != 3 {
		t.Errorf("clamped page: %d person buttons, want 3", n)
	}
	if sess := b.session(t, seekerID); sess.GetInt(keyLastPage) != 2 {
		t.Errorf("last_page = %d, want 2", sess.GetInt(keyLastPage))
	}
}

func TestResultDetailAndBack(t *testing.T) {
	b := newSearchBot(t,
		registeredMember(1, "alpha", "alpha_tg", "TeamA", "Engineer", "Junior"),
	)
	b.choose(seekerID, TokenContinue)
	b.choose(seekerID, TokenSearchByTeam)
	b.choose(seekerID, prefixTeam+"TeamA")

	effects := b.choose(seekerID, prefixPerson+"alpha_tg")
	card := lastMessage(t, effects)
	for _, want := range []string{"alpha_tg", "alpha", "Engineer"} {
		if !strings.Contains(card, want) {
			t.Errorf("card %q missing %q", card, want)
		}
	}
	if sess := b.session(t, seekerID); sess.State != StateResultDetail {
		t.Fatalf("state = %s, want %s", sess.State, StateResultDetail)
	}

	effects = b.choose(seekerID, tokenBackToList)
	if !hasToken(effects, prefixPerson+"alpha_tg") {
		t.Errorf("back to list lost the results, tokens %v", choiceTokens(effects))
	}
	if sess := b.session(t, seekerID); sess.State != StateResultsList {
		t.Errorf("state = %s, want %s", sess.State, StateResultsList)
	}
}

func TestResultDetailUnknownPerson(t *testing.T) {
	b := newSearchBot(t,
		registeredMember(1, "alpha", "alpha_tg", "TeamA", "Engineer", "Junior"),
	)
	b.choose(seekerID, TokenContinue)
	b.choose(seekerID, TokenSearchByTeam)
	b.choose(seekerID, prefixTeam+"TeamA")

	effects := b.choose(seekerID, prefixPerson+"vanished_tg")
	if got := lastMessage(t, effects); got != msgNoUserInfo {
		t.Fatalf("got %q, want %q", got, msgNoUserInfo)
	}
	if sess := b.session(t, seekerID); sess.State != StateResultsList {
		t.Errorf("state = %s, want to stay in %s", sess.State, StateResultsList)
	}
}

func TestBackToListWithoutFilterResets(t *testing.T) {
	b := newSearchBot(t)
	stranded := domain.NewSession(seekerID, FlowSearch, StateResultDetail)
	if err := b.sessions.SaveSession(context.Background(), stranded); err != nil {
		t.Fatal(err)
	}

	effects := b.choose(seekerID, tokenBackToList)
	if got := lastMessage(t, effects); got != msgCantBackToList {
		t.Fatalf("got %q, want %q", got, msgCantBackToList)
	}
	sess := b.session(t, seekerID)
	if sess.State != StateCriteriaSelect {
		t.Errorf("state = %s, want %s", sess.State, StateCriteriaSelect)
	}
	if len(sess.Scratch) != 0 {
		t.Errorf("scratch not cleared: %v", sess.Scratch)
	}
}

func TestStartResetsMidFlow(t *testing.T) {
	b := newSearchBot(t,
		registeredMember(1, "alpha", "alpha_tg", "TeamA", "Engineer", "Junior"),
	)
	b.choose(seekerID, TokenContinue)
	b.choose(seekerID, TokenSearchByTeam)

	effects := b.choose(seekerID, TokenStart)
	if got := lastMessage(t, effects); got != msgWelcomeSearchPeers {
		t.Fatalf("got %q, want welcome", got)
	}
	sess := b.session(t, seekerID)
	if sess.Flow != FlowSearch || sess.State != StateCriteriaSelect {
		t.Errorf("want fresh search session, got (%s, %s)", sess.Flow, sess.State)
	}
}

func countPersonChoices(effects []Effect) int {
	n := 0
	for _, token := range choiceTokens(effects) {
		if strings.HasPrefix(token, prefixPerson) {
			n++
		}
	}
	return n
}
