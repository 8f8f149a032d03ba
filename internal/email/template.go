package email

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/jwalitptl/clinic-api/internal/model"
)

type Message struct {
	Subject string
	Text    string
	HTML    string
}

var verificationHTML = template.Must(template.New("verification").Parse(`<p>Olá, {{.Name}}!</p>
<p>Recebemos um pedido de cadastro na plataforma {{.AppName}}.</p>
<p>Use o código abaixo para confirmar seu e-mail:</p>
<p style="font-size:24px;letter-spacing:4px"><strong>{{.Code}}</strong></p>
<p>Você também pode clicar no link abaixo para confirmar diretamente:</p>
<p><a href="{{.Link}}">{{.Link}}</a></p>
<p>O código expira em 30 minutos. Se você não fez esse cadastro, pode ignorar este e-mail.</p>
`))

// VerificationMessage renders the email carrying the code and the link.
func VerificationMessage(appName string, notice model.VerificationNotice) Message {
	name := notice.Name
	if name == "" {
		name = notice.Email
	}

	text := fmt.Sprintf("Olá, %s!\n\n"+
		"Recebemos um pedido de cadastro na plataforma %s.\n\n"+
		"Use o código abaixo para confirmar seu e-mail:\n\n"+
		"    %s\n\n"+
		"Você também pode clicar no link abaixo para confirmar diretamente:\n\n"+
		"%s\n\n"+
		"O código expira em 30 minutos. Se você não fez esse cadastro, pode ignorar este e-mail.\n",
		name, appName, notice.Code, notice.Link)

	var html bytes.Buffer
	_ = verificationHTML.Execute(&html, struct {
		Name    string
		AppName string
		Code    string
		Link    string
	}{name, appName, notice.Code, notice.Link})

	return Message{
		Subject: fmt.Sprintf("Confirme seu e-mail - %s", appName),
		Text:    text,
		HTML:    html.String(),
	}
}
