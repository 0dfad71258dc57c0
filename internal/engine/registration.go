package engine

import (
	"context"
	"strings"

	"github.com/ashureev/peerbot/internal/domain"
	"github.com/ashureev/peerbot/internal/validate"
)

// startRegistration resets the session into the registration flow and asks
// for the School 21 nickname.
func (e *Engine) startRegistration(sess *domain.Session, ev Event) []Effect {
	sess.ClearScratch()
	sess.Flow = FlowRegistration
	sess.State = StateRegNick21
	if ev.FullName != "" {
		sess.Set(keyFullName, ev.FullName)
	}
	return []Effect{
		{UserID: sess.UserID, Message: msgWelcomeRegistration},
		{UserID: sess.UserID, Message: msgSchool21Nick},
	}
}

func (e *Engine) regNick21(ctx context.Context, sess *domain.Session, ev Event) []Effect {
	if ev.Kind != KindText {
		return e.reply(sess, msgUseButtons)
	}
	nick, err := validate.School21Nick(ev.Payload)
	if err != nil {
		return e.reply(sess, err.Error())
	}

	existing, err := e.repo.FindPersonBySchool21Nick(ctx, nick)
	if err != nil {
		e.logger.Error("school21 nick uniqueness check failed", "user_id", sess.UserID, "error", err)
		return e.reply(sess, msgUpdateError)
	}
	if existing != nil {
		return e.reply(sess, msgSchool21NickUsed)
	}

	sess.Set(keySchool21Nick, nick)
	sess.State = StateRegSberchatName
	return e.reply(sess, msgSberchatName)
}

func (e *Engine) regSberchatName(_ context.Context, sess *domain.Session, ev Event) []Effect {
	if ev.Kind != KindText {
		return e.reply(sess, msgUseButtons)
	}
	name, err := validate.SberchatNick(ev.Payload)
	if err != nil {
		return e.reply(sess, err.Error())
	}
	sess.Set(keySberchatNick, name)
	sess.State = StateRegTelegramNick
	return e.reply(sess, msgTelegramNick, Choice{Label: btnShowTgNickname, Token: TokenUseMyHandle})
}

func (e *Engine) regTelegramNick(_ context.Context, sess *domain.Session, ev Event) []Effect {
	var nick string
	if ev.Kind == KindChoice {
		if ev.Payload != TokenUseMyHandle {
			return e.reply(sess, msgUseButtons)
		}
		if ev.Handle == "" {
			return e.reply(sess, msgTelegramNickNotSet)
		}
		nick = ev.Handle
	} else {
		var err error
		nick, err = validate.TelegramNick(ev.Payload)
		if err != nil {
			return e.reply(sess, err.Error())
		}
	}
	sess.Set(keyTelegramNick, nick)
	sess.State = StateRegTeam
	return e.reply(sess, msgTeamName)
}

func (e *Engine) regTeam(_ context.Context, sess *domain.Session, ev Event) []Effect {
	if ev.Kind != KindText {
		return e.reply(sess, msgUseButtons)
	}
	team, err := validate.TeamName(ev.Payload)
	if err != nil {
		return e.reply(sess, err.Error())
	}
	sess.Set(keyTeam, team)
	sess.State = StateRegRole
	return e.reply(sess, msgUserRole)
}

func (e *Engine) regRole(ctx context.Context, sess *domain.Session, ev Event) []Effect {
	if ev.Kind != KindText {
		return e.reply(sess, msgUseButtons)
	}
	role, err := validate.RoleName(ev.Payload)
	if err != nil {
		return e.reply(sess, err.Error())
	}

	choices, errEffects := e.levelChoices(ctx, sess, false)
	if errEffects != nil {
		return errEffects
	}

	sess.Set(keyRole, role)
	sess.State = StateRegLevel
	return e.reply(sess, msgRoleLevel, choices...)
}

func (e *Engine) regLevel(ctx context.Context, sess *domain.Session, ev Event) []Effect {
	level, effects := e.pickLevel(ctx, sess, ev, false)
	if effects != nil {
		return effects
	}
	sess.Set(keyLevel, level)
	sess.State = StateRegProject
	return e.reply(sess, msgProject, Choice{Label: btnSkip, Token: TokenSkipProject})
}

func (e *Engine) regProject(_ context.Context, sess *domain.Session, ev Event) []Effect {
	if ev.Kind == KindChoice {
		if ev.Payload != TokenSkipProject {
			return e.reply(sess, msgUseButtons)
		}
		sess.Set(keyProject, domain.ProjectNotSet)
		return e.showConfirm(sess)
	}

	project, err := validate.ProjectDescription(ev.Payload)
	if err != nil {
		return e.reply(sess, err.Error())
	}
	sess.Set(keyProject, project)
	return e.showConfirm(sess)
}

// showConfirm presents the collected fields with confirm/edit choices.
func (e *Engine) showConfirm(sess *domain.Session) []Effect {
	sess.State = StateRegConfirm
	return e.reply(sess, userCard(sess),
		Choice{Label: btnConfirm, Token: TokenConfirm},
		Choice{Label: btnEdit, Token: TokenEdit},
	)
}

func (e *Engine) regConfirm(ctx context.Context, sess *domain.Session, ev Event) []Effect {
	if ev.Kind != KindChoice {
		return e.reply(sess, msgUseButtons)
	}
	switch ev.Payload {
	case TokenConfirm:
		if sess.Get(keyProfileChanges) != "" {
			return e.persistProfileChanges(ctx, sess)
		}
		sess.State = StateRegAgreement
		return e.reply(sess, msgAgreement, Choice{Label: btnContinue, Token: TokenContinue})
	case TokenEdit:
		sess.State = StateRegEditField
		return e.reply(sess, msgSelectValueToEdit, fieldChoices()...)
	default:
		return e.reply(sess, msgUseButtons)
	}
}

// persistProfileChanges saves an edited profile directly, skipping the
// agreement step, and exits into the search flow.
func (e *Engine) persistProfileChanges(ctx context.Context, sess *domain.Session) []Effect {
	sess.Delete(keyProfileChanges)
	sess.Delete(keyEditField)
	if _, err := e.repo.UpsertPerson(ctx, e.personFromScratch(sess)); err != nil {
		e.logger.Error("profile update failed", "user_id", sess.UserID, "error", err)
		sess.Set(keyProfileChanges, "1")
		sess.State = StateRegConfirm
		return e.reply(sess, msgDataNotSaved,
			Choice{Label: btnConfirm, Token: TokenConfirm},
			Choice{Label: btnEdit, Token: TokenEdit},
		)
	}
	sess.ClearScratch()
	sess.Flow = FlowSearch
	sess.State = StateCriteriaSelect
	return e.reply(sess, msgDataSaved, Choice{Label: btnContinue, Token: TokenContinueSearch})
}

func (e *Engine) regEditField(ctx context.Context, sess *domain.Session, ev Event) []Effect {
	if ev.Kind != KindChoice {
		return e.reply(sess, msgUseButtons)
	}
	field, ok := editableFields[ev.Payload]
	if !ok {
		return e.reply(sess, msgInvalidEditChoice, fieldChoices()...)
	}
	sess.Set(keyEditField, field)

	if field == keyLevel {
		sess.State = StateRegEditLevel
		choices, errEffects := e.levelChoices(ctx, sess, false)
		if errEffects != nil {
			sess.State = StateRegEditField
			return errEffects
		}
		return e.reply(sess, msgRoleLevel, choices...)
	}
	sess.State = StateRegEditValue
	return e.reply(sess, msgCurrentFieldValue(ev.Payload, sess.Get(field)))
}

func (e *Engine) regEditValue(_ context.Context, sess *domain.Session, ev Event) []Effect {
	field := sess.Get(keyEditField)
	if field == "" {
		sess.State = StateRegEditField
		return e.reply(sess, msgUpdateError, fieldChoices()...)
	}
	if ev.Kind != KindText {
		return e.reply(sess, msgUseButtons)
	}

	validator, ok := fieldValidators[field]
	if !ok {
		sess.State = StateRegEditField
		return e.reply(sess, msgInvalidEditChoice, fieldChoices()...)
	}
	value, err := validator(ev.Payload)
	if err != nil {
		return e.reply(sess, err.Error())
	}
	sess.Set(field, value)
	return e.showConfirm(sess)
}

func (e *Engine) regEditLevel(ctx context.Context, sess *domain.Session, ev Event) []Effect {
	level, effects := e.pickLevel(ctx, sess, ev, false)
	if effects != nil {
		return effects
	}
	sess.Set(keyLevel, level)
	return e.showConfirm(sess)
}

func (e *Engine) regAgreement(ctx context.Context, sess *domain.Session, ev Event) []Effect {
	if ev.Kind != KindChoice || ev.Payload != TokenContinue {
		return e.reply(sess, msgUseButtons)
	}
	sess.Delete(keyEditField)

	person, err := e.repo.UpsertPerson(ctx, e.personFromScratch(sess))
	if err != nil {
		e.logger.Error("registration save failed", "user_id", sess.UserID, "error", err)
		sess.State = StateRegConfirm
		return e.reply(sess, msgDataNotSaved,
			Choice{Label: btnConfirm, Token: TokenConfirm},
			Choice{Label: btnEdit, Token: TokenEdit},
		)
	}

	choices := make([]Choice, 0, 2)
	link, err := e.group.CreateInviteLink(ctx)
	if err != nil {
		e.logger.Error("invite link creation failed", "user_id", sess.UserID, "error", err)
	} else {
		choices = append(choices, Choice{Label: btnJoinCommunity, URL: link})
		if err := e.repo.SetInviteSent(ctx, person.TelegramID); err != nil {
			e.logger.Error("set invite_sent failed", "user_id", sess.UserID, "error", err)
		}
	}
	choices = append(choices, Choice{Label: btnSearchPeers, Token: TokenSearchPeers})

	sess.ClearScratch()
	sess.Flow = FlowSearch
	sess.State = StateCriteriaSelect
	return e.reply(sess, msgCongrats, choices...)
}

// pickLevel validates a level choice against the stored vocabulary. It
// returns either the chosen level or the effects re-prompting the user.
// withAny prepends the "any" sentinel for the search flow.
func (e *Engine) pickLevel(ctx context.Context, sess *domain.Session, ev Event, withAny bool) (string, []Effect) {
	choices, errEffects := e.levelChoices(ctx, sess, withAny)
	if errEffects != nil {
		return "", errEffects
	}
	if ev.Kind != KindChoice {
		return "", e.reply(sess, msgRoleLevelInvalid, choices...)
	}
	name, ok := strings.CutPrefix(ev.Payload, prefixLevel)
	if !ok {
		return "", e.reply(sess, msgRoleLevelInvalid, choices...)
	}
	for _, c := range choices {
		if c.Token == ev.Payload {
			return name, nil
		}
	}
	return "", e.reply(sess, msgRoleLevelInvalid, choices...)
}

// levelChoices builds the level keyboard from the stored vocabulary.
func (e *Engine) levelChoices(ctx context.Context, sess *domain.Session, withAny bool) ([]Choice, []Effect) {
	levels, err := e.repo.ListLevels(ctx)
	if err != nil {
		e.logger.Error("list levels failed", "user_id", sess.UserID, "error", err)
		return nil, e.reply(sess, msgUpdateError)
	}
	if withAny {
		levels = append([]string{domain.LevelAny}, levels...)
	}
	choices := make([]Choice, 0, len(levels))
	for _, level := range levels {
		label := level
		if label == domain.LevelAny {
			label = displayLevelAny
		}
		choices = append(choices, Choice{Label: label, Token: prefixLevel + level})
	}
	return choices, nil
}

func fieldChoices() []Choice {
	labels := []string{
		btnFieldSchool21, btnFieldSberchat, btnFieldTelegram,
		btnFieldTeam, btnFieldRole, btnFieldLevel, btnFieldProject,
	}
	choices := make([]Choice, 0, len(labels))
	for _, label := range labels {
		choices = append(choices, Choice{Label: label, Token: label})
	}
	return choices
}

// fieldValidators maps editable free-text fields to their validators.
var fieldValidators = map[string]func(string) (string, error){
	keySchool21Nick: validate.School21Nick,
	keySberchatNick: validate.SberchatNick,
	keyTelegramNick: validate.TelegramNick,
	keyTeam:         validate.TeamName,
	keyRole:         validate.RoleName,
	keyProject:      validate.ProjectDescription,
}

// personFromScratch assembles the record to persist from collected fields.
// Flags survive a profile edit because they were prefilled into scratch.
func (e *Engine) personFromScratch(sess *domain.Session) *domain.Person {
	return &domain.Person{
		TelegramID:       sess.UserID,
		FullName:         sess.Get(keyFullName),
		Role:             sess.Get(keyRole),
		Level:            sess.Get(keyLevel),
		Team:             sess.Get(keyTeam),
		Project:          sess.Get(keyProject),
		TelegramNick:     sess.Get(keyTelegramNick),
		SberchatNick:     sess.Get(keySberchatNick),
		School21Nick:     sess.Get(keySchool21Nick),
		InviteSent:       sess.Get(keyInviteSent) == "1",
		IsMember:         sess.Get(keyIsMember) == "1",
	}
}
