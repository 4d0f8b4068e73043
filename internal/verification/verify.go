// Package verification renders the email a runner receives when their
// payment is verified. The decision to send is edge-triggered and made
// where the flag flips, under the same row lock that writes it; this
// package only composes the message.
package verification

import (
	"fmt"
	"time"
)

// Notification is the email to send when a runner becomes verified.
// It is composed here and dispatched by the caller, so delivery
// concerns stay out of the message.
type Notification struct {
	Email         string
	FirstName     string
	EventName     string
	DistanceLabel string
	EventDate     time.Time
}

func (n Notification) Subject() string {
	return "Your Registration Is Verified!"
}

func (n Notification) Body() string {
	return fmt.Sprintf(
		"Hi %s,\n\n"+
			"Your registration for the following event has been officially verified:\n\n"+
			"Event: %s\n"+
			"Distance: %s KM\n"+
			"Date: %s\n\n"+
			"You're now officially part of the race!\n"+
			"Please keep your email active for race day details and instructions.\n\n"+
			"See you at the starting line!\n"+
			"– The Surigao Runners Team",
		n.FirstName, n.EventName, n.DistanceLabel, n.EventDate.Format("January 02, 2006"),
	)
}
