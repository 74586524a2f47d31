package checkinservice

import (
	"context"
	"errors"
)

// ErrUnknownName is returned by StaticDirectory for ids it does not hold.
var ErrUnknownName = errors.New("name not found")

// StaticDirectory resolves names from fixed maps loaded from configuration.
type StaticDirectory struct {
	Players     map[string]string
	Tournaments map[string]string
}

func (d StaticDirectory) ResolvePlayerName(_ context.Context, playerID string) (string, error) {
	if name, ok := d.Players[playerID]; ok {
		return name, nil
	}
	return "", ErrUnknownName
}

func (d StaticDirectory) ResolveTournamentName(_ context.Context, tournamentID string) (string, error) {
	if name, ok := d.Tournaments[tournamentID]; ok {
		return name, nil
	}
	return "", ErrUnknownName
}

var _ NameResolver = StaticDirectory{}
