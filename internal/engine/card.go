package engine

import (
	"fmt"
	"strings"

	"github.com/ashureev/peerbot/internal/domain"
)

// userCard renders the confirmation summary of the collected fields.
func userCard(sess *domain.Session) string {
	var b strings.Builder
	b.WriteString("Проверьте введенные данные:\n\n")
	fmt.Fprintf(&b, "%s: %s\n", btnFieldSchool21, sess.Get(keySchool21Nick))
	fmt.Fprintf(&b, "%s: %s\n", btnFieldSberchat, sess.Get(keySberchatNick))
	fmt.Fprintf(&b, "%s: @%s\n", btnFieldTelegram, sess.Get(keyTelegramNick))
	fmt.Fprintf(&b, "%s: %s\n", btnFieldTeam, sess.Get(keyTeam))
	fmt.Fprintf(&b, "%s: %s\n", btnFieldRole, sess.Get(keyRole))
	fmt.Fprintf(&b, "%s: %s\n", btnFieldLevel, sess.Get(keyLevel))
	fmt.Fprintf(&b, "%s: %s\n", btnFieldProject, sess.Get(keyProject))
	return b.String()
}

// personCard renders the public fields of one search result.
func personCard(p *domain.Person) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Сберчат: %s\n", orNotSet(p.SberchatNick))
	fmt.Fprintf(&b, "TG: @%s\n", orNotSet(p.TelegramNick))
	fmt.Fprintf(&b, "S21: %s\n", orNotSet(p.School21Nick))
	fmt.Fprintf(&b, "Роль: %s %s\n", orNotSet(p.Level), orNotSet(p.Role))
	fmt.Fprintf(&b, "Над чем работаю: %s", orNotSet(p.Project))
	return b.String()
}

func orNotSet(v string) string {
	if v == "" {
		return domain.ProjectNotSet
	}
	return v
}
