package notification

import (
	"fmt"
	"html"
)

func invitedMessage(inviter, carpool, link string) (subject, text, body string) {
	subject = fmt.Sprintf("You're invited to join %s", carpool)
	text = fmt.Sprintf("%s invited you to join the carpool %s. Open %s to accept or decline.", inviter, carpool, link)
	body = fmt.Sprintf(`<html><body>
		<h2>Carpool invitation</h2>
		<p>%s invited you to join the carpool <strong>%s</strong>.</p>
		<p><a href="%s">Open the carpool</a> to accept or decline.</p>
	</body></html>`, html.EscapeString(inviter), html.EscapeString(carpool), html.EscapeString(link))
	return subject, text, body
}

func requestedMessage(requester, carpool, link string) (subject, text, body string) {
	subject = fmt.Sprintf("%s wants to join %s", requester, carpool)
	text = fmt.Sprintf("%s asked to join your carpool %s. Open %s to accept or deny the request.", requester, carpool, link)
	body = fmt.Sprintf(`<html><body>
		<h2>New join request</h2>
		<p>%s asked to join your carpool <strong>%s</strong>.</p>
		<p><a href="%s">Open the carpool</a> to accept or deny the request.</p>
	</body></html>`, html.EscapeString(requester), html.EscapeString(carpool), html.EscapeString(link))
	return subject, text, body
}

func acceptedMessage(carpool, link string) (subject, text, body string) {
	subject = fmt.Sprintf("You're in: %s", carpool)
	text = fmt.Sprintf("Your request to join %s was accepted. Open %s to see the other members.", carpool, link)
	body = fmt.Sprintf(`<html><body>
		<h2>Request accepted</h2>
		<p>Your request to join <strong>%s</strong> was accepted.</p>
		<p><a href="%s">Open the carpool</a> to see the other members.</p>
	</body></html>`, html.EscapeString(carpool), html.EscapeString(link))
	return subject, text, body
}
