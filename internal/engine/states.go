package engine

import "github.com/ashureev/peerbot/internal/domain"

// Flows.
const (
	FlowRegistration domain.Flow = "registration"
	FlowSearch       domain.Flow = "search"
)

// Registration flow states.
const (
	StateRegNick21       domain.State = "reg_nick21"
	StateRegSberchatName domain.State = "reg_sberchat_name"
	StateRegTelegramNick domain.State = "reg_telegram_nick"
	StateRegTeam         domain.State = "reg_team"
	StateRegRole         domain.State = "reg_role"
	StateRegLevel        domain.State = "reg_level"
	StateRegProject      domain.State = "reg_project"
	StateRegConfirm      domain.State = "reg_confirm"
	StateRegEditField    domain.State = "reg_edit_field"
	StateRegEditValue    domain.State = "reg_edit_value"
	StateRegEditLevel    domain.State = "reg_edit_level"
	StateRegAgreement    domain.State = "reg_agreement"
)

// Search flow states.
const (
	StateCriteriaSelect domain.State = "search_criteria"
	StateTeamSelect     domain.State = "search_team"
	StateRoleSelect     domain.State = "search_role"
	StateLevelSelect    domain.State = "search_level"
	StateNicknameInput  domain.State = "search_nickname"
	StateResultsList    domain.State = "search_results"
	StateResultDetail   domain.State = "search_detail"
)

// regHandlers is the registration flow's transition table: every state the
// flow can be in maps to exactly one handler.
var regHandlers = map[domain.State]handlerFunc{
	StateRegNick21:       (*Engine).regNick21,
	StateRegSberchatName: (*Engine).regSberchatName,
	StateRegTelegramNick: (*Engine).regTelegramNick,
	StateRegTeam:         (*Engine).regTeam,
	StateRegRole:         (*Engine).regRole,
	StateRegLevel:        (*Engine).regLevel,
	StateRegProject:      (*Engine).regProject,
	StateRegConfirm:      (*Engine).regConfirm,
	StateRegEditField:    (*Engine).regEditField,
	StateRegEditValue:    (*Engine).regEditValue,
	StateRegEditLevel:    (*Engine).regEditLevel,
	StateRegAgreement:    (*Engine).regAgreement,
}

// searchHandlers is the search flow's transition table.
var searchHandlers = map[domain.State]handlerFunc{
	StateCriteriaSelect: (*Engine).searchCriteria,
	StateTeamSelect:     (*Engine).searchTeam,
	StateRoleSelect:     (*Engine).searchRole,
	StateLevelSelect:    (*Engine).searchLevel,
	StateNicknameInput:  (*Engine).searchNickname,
	StateResultsList:    (*Engine).searchResults,
	StateResultDetail:   (*Engine).searchDetail,
}

// Scratch keys for collected registration fields.
const (
	keySchool21Nick = "school21_nick"
	keySberchatNick = "sberchat_nick"
	keyTelegramNick = "telegram_nick"
	keyTeam         = "team"
	keyRole         = "role"
	keyLevel        = "level"
	keyProject      = "project"
	keyFullName     = "full_name"
)

// Scratch keys for bookkeeping.
const (
	keyEditField      = "field_for_edit"
	keyProfileChanges = "profile_changes"
	keyInviteSent     = "invite_sent"
	keyIsMember       = "is_member"
	keySelectedRole   = "selected_role"
	keySelectedLevel  = "selected_level"
	keyFilter         = "filter"
	keyLastTeamName   = "last_team_name"
	keyLastNickname   = "last_nickname"
	keyLastPage       = "last_page"
	keyLastTeamPage   = "last_team_page"
	keyLastRolePage   = "last_role_page"
	keyLastLevelPage  = "last_level_page"
)

// Filter descriptors stored under keyFilter.
const (
	filterTeam      = "team"
	filterRoleLevel = "role_level"
	filterNickname  = "nickname"
)

// Choice tokens. Prefixed tokens carry a suffix after the final underscore.
const (
	TokenStart          = "start"
	TokenChangeProfile  = "change_profile"
	TokenSearchPeers    = "search_peers"
	TokenAuthenticate   = "authenticate"
	TokenContinue       = "continue"
	TokenContinueSearch = "continue_search"
	TokenConfirm        = "confirm"
	TokenEdit           = "edit"
	TokenSkipProject    = "skip_job"
	TokenUseMyHandle    = "show_my_tg_nickname"

	TokenSearchByRole     = "search_by_role"
	TokenSearchByTeam     = "search_by_team_name"
	TokenSearchByNickname = "search_by_nickname"

	tokenPrev = "prev"
	tokenNext = "next"

	tokenBackToCriteria = "back_to_criteria_selection"
	tokenBackToTeam     = "back_to_team_selection"
	tokenBackToRole     = "back_to_role_selection"
	tokenBackToLevel    = "back_to_level_selection"
	tokenBackToNickname = "back_to_nickname_search"
	tokenBackToList     = "back_to_peers_list"

	prefixTeam      = "team_"
	prefixTeamPage  = "team_page_"
	prefixRole      = "role_"
	prefixRolePage  = "role_page_"
	prefixLevel     = "level_"
	prefixLevelPage = "level_page_"
	prefixPerson    = "person_"
)

// editableFields maps the field-picker button labels to scratch keys.
// The labels double as the choice tokens.
var editableFields = map[string]string{
	btnFieldSchool21: keySchool21Nick,
	btnFieldSberchat: keySberchatNick,
	btnFieldTelegram: keyTelegramNick,
	btnFieldTeam:     keyTeam,
	btnFieldRole:     keyRole,
	btnFieldLevel:    keyLevel,
	btnFieldProject:  keyProject,
}
