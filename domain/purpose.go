package domain

import "dm-lab/errors"

// Purpose is the reason a one-time code was requested.
type Purpose uint8

const (
	PurposeRegister Purpose = iota
	PurposeLogin
)

func (p Purpose) String() string {
	if p == PurposeLogin {
		return "LOGIN"
	}
	return "REGISTER"
}

func ParsePurpose(raw string) (Purpose, error) {
	switch raw {
	case "REGISTER":
		return PurposeRegister, nil
	case "LOGIN":
		return PurposeLogin, nil
	}
	return PurposeRegister, errors.ErrUnknownPurpose
}
