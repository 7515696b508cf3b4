package domain

import "errors"

var (
	// ErrSnapshotNotFound is returned by snapshot stores when nothing has been persisted.
	ErrSnapshotNotFound = errors.New("session snapshot not found")
	// ErrPoolNotFound indicates the question pool set could not be loaded.
	ErrPoolNotFound = errors.New("question pool not found")
	// ErrEmptyPool indicates a round has no questions to play.
	ErrEmptyPool = errors.New("question pool is empty")
	// ErrInvalidPool is returned when a loaded pool has a malformed question.
	ErrInvalidPool = errors.New("invalid question pool")

	// ErrUnknownTeam is returned for team keys other than team1 and team2.
	ErrUnknownTeam = errors.New("unknown team")
	// ErrUnknownRound is returned for round identifiers outside 1, 2, 3 and bonus.
	ErrUnknownRound = errors.New("unknown round")
	// ErrNegativePoints rejects awards below zero.
	ErrNegativePoints = errors.New("points must not be negative")

	// ErrRoundMismatch is returned when completing a round other than the current one.
	ErrRoundMismatch = errors.New("round is not the current round")
	// ErrGameFinished is returned when entering a round after the final round.
	ErrGameFinished = errors.New("game is finished")
	// ErrNoActiveRound is returned for round events when no round is running.
	ErrNoActiveRound = errors.New("no active round")
	// ErrNotReady rejects answers during the bonus round's ready countdown.
	ErrNotReady = errors.New("round has not started yet")
	// ErrQuestionLocked rejects input after the question stopped accepting answers.
	ErrQuestionLocked = errors.New("question is locked")
	// ErrNotLocked is returned when resolving a question that is still open.
	ErrNotLocked = errors.New("question is not locked")
	// ErrRoundComplete rejects events sent to a finished round.
	ErrRoundComplete = errors.New("round is complete")
	// ErrNotYourTurn rejects actions from the team that is not eligible.
	ErrNotYourTurn = errors.New("not this team's turn")
	// ErrAlreadyAnswered rejects a second attempt by a team on the same question.
	ErrAlreadyAnswered = errors.New("team already answered this question")
	// ErrTeamRequired is returned when a race answer is not attributed to a team.
	ErrTeamRequired = errors.New("answer must be attributed to a team")
	// ErrNoSelection is returned when attributing with no option chosen.
	ErrNoSelection = errors.New("no option selected")
	// ErrEmptyAnswer rejects submitting a word with no letters chosen.
	ErrEmptyAnswer = errors.New("no letters selected")
	// ErrNothingToUndo is returned by undo on an empty answer.
	ErrNothingToUndo = errors.New("nothing to undo")
	// ErrLetterUnavailable rejects selecting a tile that is used or out of range.
	ErrLetterUnavailable = errors.New("letter is not available")
	// ErrOptionOutOfRange rejects option indexes outside the option list.
	ErrOptionOutOfRange = errors.New("option out of range")
	// ErrUnsupportedEvent rejects events that the current round type does not accept.
	ErrUnsupportedEvent = errors.New("event not supported by this round")
)
