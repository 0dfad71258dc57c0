package engine

import (
	"context"
	"strconv"
	"strings"

	"github.com/ashureev/peerbot/internal/domain"
	"github.com/ashureev/peerbot/internal/pagination"
)

func (e *Engine) searchCriteria(ctx context.Context, sess *domain.Session, ev Event) []Effect {
	if ev.Kind != KindChoice {
		return e.reply(sess, msgUseButtons)
	}
	switch ev.Payload {
	case TokenContinue, TokenContinueSearch:
		return e.showCriteria(ctx, sess)
	case TokenAuthenticate:
		return e.startRegistration(sess, ev)
	case TokenSearchByRole:
		return e.showRoles(ctx, sess, 0)
	case TokenSearchByTeam:
		return e.showTeams(ctx, sess, 0)
	case TokenSearchByNickname:
		return e.promptNickname(sess)
	default:
		return e.reply(sess, msgUseButtons)
	}
}

// showCriteria runs the membership gate and, when it passes, offers the
// three search criteria.
func (e *Engine) showCriteria(ctx context.Context, sess *domain.Session) []Effect {
	sess.State = StateCriteriaSelect

	person, err := e.repo.FindPersonByTelegramID(ctx, sess.UserID)
	if err != nil {
		e.logger.Error("person lookup failed", "user_id", sess.UserID, "error", err)
		return e.reply(sess, msgStatusCheckError)
	}
	if person == nil {
		return e.reply(sess, msgCompleteAuth, Choice{Label: btnAuthenticate, Token: TokenAuthenticate})
	}

	member, err := e.group.IsMember(ctx, sess.UserID)
	if err != nil {
		e.logger.Error("membership check failed", "user_id", sess.UserID, "error", err)
		return e.reply(sess, msgStatusCheckError)
	}
	if !member {
		link, err := e.group.CreateInviteLink(ctx)
		if err != nil {
			e.logger.Error("invite link creation failed", "user_id", sess.UserID, "error", err)
			return e.reply(sess, msgStatusCheckError)
		}
		if !person.InviteSent {
			if err := e.repo.SetInviteSent(ctx, sess.UserID); err != nil {
				e.logger.Error("set invite_sent failed", "user_id", sess.UserID, "error", err)
			}
		}
		return e.reply(sess, msgJoinCommunity(link), Choice{Label: btnConfirmJoin, Token: TokenContinue})
	}

	return e.reply(sess, msgChooseCriteria,
		Choice{Label: btnSearchByRole, Token: TokenSearchByRole},
		Choice{Label: btnSearchByTeam, Token: TokenSearchByTeam},
		Choice{Label: btnSearchByNickname, Token: TokenSearchByNickname},
	)
}

func (e *Engine) searchTeam(ctx context.Context, sess *domain.Session, ev Event) []Effect {
	if ev.Kind != KindChoice {
		return e.reply(sess, msgUseButtons)
	}
	if ev.Payload == tokenBackToCriteria {
		return e.showCriteria(ctx, sess)
	}
	if suffix, ok := strings.CutPrefix(ev.Payload, prefixTeamPage); ok {
		return e.showTeams(ctx, sess, atoiOrZero(suffix))
	}
	if team, ok := strings.CutPrefix(ev.Payload, prefixTeam); ok {
		return e.runTeamSearch(ctx, sess, team)
	}
	return e.reply(sess, msgIncorrectChoose)
}

func (e *Engine) runTeamSearch(ctx context.Context, sess *domain.Session, team string) []Effect {
	people, err := e.repo.SearchByTeam(ctx, team)
	if err != nil {
		e.logger.Error("team search failed", "user_id", sess.UserID, "error", err)
		return e.reply(sess, msgUpdateError)
	}
	if len(people) == 0 {
		return e.reply(sess, msgNobodyWithTeam(team),
			Choice{Label: btnBackToSelection, Token: tokenBackToTeam},
			Choice{Label: btnBackToCriteria, Token: tokenBackToCriteria},
		)
	}
	sess.Set(keyFilter, filterTeam)
	sess.Set(keyLastTeamName, team)
	return e.showResults(sess, people, 0)
}

func (e *Engine) searchRole(ctx context.Context, sess *domain.Session, ev Event) []Effect {
	if ev.Kind != KindChoice {
		return e.reply(sess, msgUseButtons)
	}
	if ev.Payload == tokenBackToCriteria {
		return e.showCriteria(ctx, sess)
	}
	if suffix, ok := strings.CutPrefix(ev.Payload, prefixRolePage); ok {
		return e.showRoles(ctx, sess, atoiOrZero(suffix))
	}
	if role, ok := strings.CutPrefix(ev.Payload, prefixRole); ok {
		sess.Set(keySelectedRole, role)
		return e.showLevels(ctx, sess, 0)
	}
	return e.reply(sess, msgIncorrectChoose)
}

func (e *Engine) searchLevel(ctx context.Context, sess *domain.Session, ev Event) []Effect {
	if ev.Kind != KindChoice {
		return e.reply(sess, msgUseButtons)
	}
	switch ev.Payload {
	case tokenBackToCriteria:
		return e.showCriteria(ctx, sess)
	case tokenBackToRole:
		return e.showRoles(ctx, sess, sess.GetInt(keyLastRolePage))
	}
	if suffix, ok := strings.CutPrefix(ev.Payload, prefixLevelPage); ok {
		return e.showLevels(ctx, sess, atoiOrZero(suffix))
	}

	level, effects := e.pickLevel(ctx, sess, ev, true)
	if effects != nil {
		return effects
	}
	role := sess.Get(keySelectedRole)
	if role == "" {
		sess.ClearScratch()
		sess.State = StateCriteriaSelect
		return e.reply(sess, msgCantBackToPreviousStep)
	}

	people, err := e.repo.SearchByRoleLevel(ctx, role, level)
	if err != nil {
		e.logger.Error("role/level search failed", "user_id", sess.UserID, "error", err)
		return e.reply(sess, msgUpdateError)
	}
	if len(people) == 0 {
		return e.reply(sess, msgNobodyWithRoleLevel(role, level),
			Choice{Label: btnBackToSelection, Token: tokenBackToLevel},
			Choice{Label: btnBackToCriteria, Token: tokenBackToCriteria},
		)
	}
	sess.Set(keyFilter, filterRoleLevel)
	sess.Set(keySelectedLevel, level)
	return e.showResults(sess, people, 0)
}

func (e *Engine) searchNickname(ctx context.Context, sess *domain.Session, ev Event) []Effect {
	if ev.Kind == KindChoice {
		switch ev.Payload {
		case tokenBackToCriteria:
			return e.showCriteria(ctx, sess)
		case tokenBackToNickname:
			return e.promptNickname(sess)
		default:
			return e.reply(sess, msgIncorrectChoose)
		}
	}

	nickname := strings.TrimSpace(ev.Payload)
	people, err := e.repo.SearchByNickname(ctx, nickname)
	if err != nil {
		e.logger.Error("nickname search failed", "user_id", sess.UserID, "error", err)
		return e.reply(sess, msgUpdateError)
	}
	if len(people) == 0 {
		return e.reply(sess, msgNoNicknameSearchResults,
			Choice{Label: btnBackToSelection, Token: tokenBackToNickname},
			Choice{Label: btnBackToCriteria, Token: tokenBackToCriteria},
		)
	}
	sess.Set(keyFilter, filterNickname)
	sess.Set(keyLastNickname, nickname)
	return e.showResults(sess, people, 0)
}

func (e *Engine) searchResults(ctx context.Context, sess *domain.Session, ev Event) []Effect {
	if ev.Kind != KindChoice {
		return e.reply(sess, msgUseButtons)
	}
	switch ev.Payload {
	case tokenPrev, tokenNext:
		people, effects := e.runActiveFilter(ctx, sess)
		if effects != nil {
			return effects
		}
		page := sess.GetInt(keyLastPage)
		if ev.Payload == tokenPrev {
			page--
		} else {
			page++
		}
		return e.showResults(sess, people, page)
	case tokenBackToCriteria:
		return e.showCriteria(ctx, sess)
	case tokenBackToTeam:
		return e.showTeams(ctx, sess, sess.GetInt(keyLastTeamPage))
	case tokenBackToRole:
		return e.showRoles(ctx, sess, sess.GetInt(keyLastRolePage))
	case tokenBackToLevel:
		return e.showLevels(ctx, sess, sess.GetInt(keyLastLevelPage))
	case tokenBackToNickname:
		return e.promptNickname(sess)
	}
	if nick, ok := strings.CutPrefix(ev.Payload, prefixPerson); ok {
		return e.showDetail(ctx, sess, nick)
	}
	return e.reply(sess, msgIncorrectChoose)
}

func (e *Engine) showDetail(ctx context.Context, sess *domain.Session, nick string) []Effect {
	person, err := e.repo.FindPersonByTelegramNick(ctx, nick)
	if err != nil {
		e.logger.Error("person detail lookup failed", "user_id", sess.UserID, "error", err)
		return e.reply(sess, msgUpdateError)
	}
	if person == nil {
		return e.reply(sess, msgNoUserInfo)
	}
	sess.State = StateResultDetail
	return e.reply(sess, personCard(person),
		Choice{Label: btnBackToList, Token: tokenBackToList},
		Choice{Label: btnBackToCriteria, Token: tokenBackToCriteria},
	)
}

func (e *Engine) searchDetail(ctx context.Context, sess *domain.Session, ev Event) []Effect {
	if ev.Kind != KindChoice {
		return e.reply(sess, msgUseButtons)
	}
	switch ev.Payload {
	case tokenBackToList:
		people, effects := e.runActiveFilter(ctx, sess)
		if effects != nil {
			return effects
		}
		return e.showResults(sess, people, sess.GetInt(keyLastPage))
	case tokenBackToCriteria:
		return e.showCriteria(ctx, sess)
	case tokenBackToTeam:
		return e.showTeams(ctx, sess, sess.GetInt(keyLastTeamPage))
	case tokenBackToRole:
		return e.showRoles(ctx, sess, sess.GetInt(keyLastRolePage))
	case tokenBackToLevel:
		return e.showLevels(ctx, sess, sess.GetInt(keyLastLevelPage))
	case tokenBackToNickname:
		return e.promptNickname(sess)
	default:
		return e.reply(sess, msgIncorrectChoose)
	}
}

// runActiveFilter recomputes the current filter's result set. The full set
// is re-queried on every page turn so store changes show up immediately.
// A missing filter context resets the flow with a recoverable message.
func (e *Engine) runActiveFilter(ctx context.Context, sess *domain.Session) ([]*domain.Person, []Effect) {
	var people []*domain.Person
	var err error

	switch sess.Get(keyFilter) {
	case filterTeam:
		people, err = e.repo.SearchByTeam(ctx, sess.Get(keyLastTeamName))
	case filterRoleLevel:
		people, err = e.repo.SearchByRoleLevel(ctx, sess.Get(keySelectedRole), sess.Get(keySelectedLevel))
	case filterNickname:
		people, err = e.repo.SearchByNickname(ctx, sess.Get(keyLastNickname))
	default:
		sess.ClearScratch()
		sess.State = StateCriteriaSelect
		return nil, e.reply(sess, msgCantBackToList)
	}
	if err != nil {
		e.logger.Error("filter re-query failed", "user_id", sess.UserID, "error", err)
		return nil, e.reply(sess, msgUpdateError)
	}
	return people, nil
}

// showResults renders one page of the result list.
func (e *Engine) showResults(sess *domain.Session, people []*domain.Person, page int) []Effect {
	pg := pagination.Paginate(people, page, e.pageSize)
	sess.SetInt(keyLastPage, pg.Index)
	sess.State = StateResultsList

	var message string
	var backToken string
	switch sess.Get(keyFilter) {
	case filterTeam:
		message = msgPeersFromTeam(sess.Get(keyLastTeamName))
		backToken = tokenBackToTeam
	case filterNickname:
		message = msgPeersWithNickname(sess.Get(keyLastNickname))
		backToken = tokenBackToNickname
	default:
		message = msgPeersWithRoleLevel(sess.Get(keySelectedRole), sess.Get(keySelectedLevel))
		backToken = tokenBackToLevel
	}

	choices := make([]Choice, 0, len(pg.Items)+3)
	for _, p := range pg.Items {
		choices = append(choices, Choice{Label: p.School21Nick, Token: prefixPerson + p.TelegramNick})
	}
	if pg.HasPrev {
		choices = append(choices, Choice{Label: btnPrev, Token: tokenPrev})
	}
	if pg.HasNext {
		choices = append(choices, Choice{Label: btnNext, Token: tokenNext})
	}
	choices = append(choices, Choice{Label: btnBackToSelection, Token: backToken})
	return e.reply(sess, message, choices...)
}

// showTeams renders a page of distinct team names.
func (e *Engine) showTeams(ctx context.Context, sess *domain.Session, page int) []Effect {
	teams, err := e.repo.ListTeams(ctx)
	if err != nil {
		e.logger.Error("list teams failed", "user_id", sess.UserID, "error", err)
		return e.reply(sess, msgUpdateError)
	}
	sess.State = StateTeamSelect
	choices, index := paginatedChoices(teams, page, e.pageSize, prefixTeam, prefixTeamPage)
	sess.SetInt(keyLastTeamPage, index)
	return e.reply(sess, msgChooseTeam, choices...)
}

// showRoles renders a page of known roles.
func (e *Engine) showRoles(ctx context.Context, sess *domain.Session, page int) []Effect {
	roles, err := e.repo.ListRoles(ctx)
	if err != nil {
		e.logger.Error("list roles failed", "user_id", sess.UserID, "error", err)
		return e.reply(sess, msgUpdateError)
	}
	sess.State = StateRoleSelect
	choices, index := paginatedChoices(roles, page, e.pageSize, prefixRole, prefixRolePage)
	sess.SetInt(keyLastRolePage, index)
	return e.reply(sess, msgLookingForWho, choices...)
}

// showLevels renders a page of levels with the "any" sentinel first.
func (e *Engine) showLevels(ctx context.Context, sess *domain.Session, page int) []Effect {
	levels, err := e.repo.ListLevels(ctx)
	if err != nil {
		e.logger.Error("list levels failed", "user_id", sess.UserID, "error", err)
		return e.reply(sess, msgUpdateError)
	}
	levels = append([]string{domain.LevelAny}, levels...)
	sess.State = StateLevelSelect
	choices, index := paginatedChoices(levels, page, e.pageSize, prefixLevel, prefixLevelPage)
	// The level list goes back to roles, not straight to criteria.
	choices[len(choices)-1] = Choice{Label: btnBackToSelection, Token: tokenBackToRole}
	if choices[0].Label == domain.LevelAny {
		choices[0].Label = displayLevelAny
	}
	sess.SetInt(keyLastLevelPage, index)
	return e.reply(sess, msgRoleWhatLevel(sess.Get(keySelectedRole)), choices...)
}

func (e *Engine) promptNickname(sess *domain.Session) []Effect {
	sess.State = StateNicknameInput
	return e.reply(sess, msgEnterPeerNickname,
		Choice{Label: btnBackToCriteria, Token: tokenBackToCriteria},
	)
}

// changeProfile prefills scratch from the stored record and opens the
// confirm gate of the registration flow for editing.
func (e *Engine) changeProfile(ctx context.Context, sess *domain.Session, _ Event) []Effect {
	person, err := e.repo.FindPersonByTelegramID(ctx, sess.UserID)
	if err != nil {
		e.logger.Error("profile lookup failed", "user_id", sess.UserID, "error", err)
		return e.reply(sess, msgUpdateError)
	}
	if person == nil {
		sess.Flow = FlowSearch
		sess.State = StateCriteriaSelect
		return e.reply(sess, msgCompleteAuth, Choice{Label: btnAuthenticate, Token: TokenAuthenticate})
	}

	sess.ClearScratch()
	sess.Set(keySchool21Nick, person.School21Nick)
	sess.Set(keySberchatNick, person.SberchatNick)
	sess.Set(keyTelegramNick, person.TelegramNick)
	sess.Set(keyTeam, person.Team)
	sess.Set(keyRole, person.Role)
	sess.Set(keyLevel, person.Level)
	sess.Set(keyProject, person.Project)
	sess.Set(keyFullName, person.FullName)
	if person.InviteSent {
		sess.Set(keyInviteSent, "1")
	}
	if person.IsMember {
		sess.Set(keyIsMember, "1")
	}
	sess.Set(keyProfileChanges, "1")
	sess.Flow = FlowRegistration
	return e.showConfirm(sess)
}

// paginatedChoices builds item buttons for one page plus navigation and a
// back-to-criteria choice. It returns the clamped page index.
func paginatedChoices(items []string, page, size int, itemPrefix, pagePrefix string) ([]Choice, int) {
	pg := pagination.Paginate(items, page, size)
	choices := make([]Choice, 0, len(pg.Items)+3)
	for _, item := range pg.Items {
		choices = append(choices, Choice{Label: item, Token: itemPrefix + item})
	}
	if pg.HasPrev {
		choices = append(choices, Choice{Label: btnPrev, Token: pagePrefix + strconv.Itoa(pg.Index-1)})
	}
	if pg.HasNext {
		choices = append(choices, Choice{Label: btnNext, Token: pagePrefix + strconv.Itoa(pg.Index+1)})
	}
	choices = append(choices, Choice{Label: btnBackToCriteria, Token: tokenBackToCriteria})
	return choices, pg.Index
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
