package models

import "time"

type User struct {
	ID       string
	UserName string
	Salt     []byte
	Verifier []byte
	// CurrentVersion is the user's sync version counter; every pushed
	// entry gets the next value.
	CurrentVersion int64
	CreatedAt      time.Time
}
