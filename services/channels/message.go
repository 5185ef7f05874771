package channels

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"medminder/models"
)

const reminderSubjectPrefix = "Medication Reminder"

var reminderHTML = template.Must(template.New("reminder").Parse(`<!DOCTYPE html>
<html>
  <body style="font-family: Arial, sans-serif; color: #222;">
    <h2>Medication Reminder</h2>
    <p>Hi{{if .UserName}} {{.UserName}}{{end}}, it's time to take your medication.</p>
    <table cellpadding="4">
      <tr><td><strong>Medication</strong></td><td>{{.Name}}</td></tr>
      {{- if .Dosage}}
      <tr><td><strong>Dosage</strong></td><td>{{.Dosage}}</td></tr>
      {{- end}}
      {{- if .Instructions}}
      <tr><td><strong>Instructions</strong></td><td>{{.Instructions}}</td></tr>
      {{- end}}
    </table>
  </body>
</html>
`))

// SMSReminderBody is the SMS text for a dose: name, dosage and, when present,
// instructions.
func SMSReminderBody(med models.Medication) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: time to take %s", reminderSubjectPrefix, med.Name)
	if med.Dosage != "" {
		fmt.Fprintf(&b, " (%s)", med.Dosage)
	}
	b.WriteString(".")
	if med.Instructions != "" {
		fmt.Fprintf(&b, " Instructions: %s", med.Instructions)
	}
	return b.String()
}

// EmailReminder builds the reminder email for user.
func EmailReminder(user models.User, med models.Medication) (EmailMessage, error) {
	var html bytes.Buffer
	err := reminderHTML.Execute(&html, struct {
		UserName     string
		Name         string
		Dosage       string
		Instructions string
	}{user.Name, med.Name, med.Dosage, med.Instructions})
	if err != nil {
		return EmailMessage{}, fmt.Errorf("render reminder email: %w", err)
	}

	return EmailMessage{
		To:      user.Email,
		Subject: fmt.Sprintf("%s: %s", reminderSubjectPrefix, med.Name),
		Text:    SMSReminderBody(med),
		HTML:    html.String(),
	}, nil
}
