package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/brainiak-app/brainiak-core/repositories"
	"github.com/brainiak-app/brainiak-core/services"
)

type jsonResponse map[string]interface{}

func readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	maxBytes := 1_048_576 // 1MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return fmt.Errorf("body contains unknown key %s", fieldName)
		case err.Error() == "http: request body too large":
			return fmt.Errorf("body must not be larger than %d bytes", maxBytes)
		case errors.As(err, &invalidUnmarshalError):
			panic(err)
		default:
			return err
		}
	}

	err = dec.Decode(&struct{}{})
	if !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}

	return nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}, headers http.Header) error {
	js, err := json.Marshal(data)
	if err != nil {
		return err
	}
	js = append(js, '\n')

	for key, value := range headers {
		w.Header()[key] = value
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(js)
	return err
}

func errorResponse(w http.ResponseWriter, r *http.Request, status int, message interface{}) {
	env := jsonResponse{"error": message}
	if err := writeJSON(w, status, env, nil); err != nil {
		slog.Error("failed to write error response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("internal server error", "method", r.Method, "path", r.URL.Path, "error", err)
	errorResponse(w, r, http.StatusInternalServerError, "the server encountered a problem and could not process your request")
}

func badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func notFoundResponse(w http.ResponseWriter, r *http.Request) {
	errorResponse(w, r, http.StatusNotFound, "the requested resource could not be found")
}

func conflictResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusConflict, message)
}

func unauthorizedResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusUnauthorized, message)
}

func forbiddenResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusForbidden, message)
}

// mapServiceErrorToHTTP translates service layer errors into HTTP responses.
func mapServiceErrorToHTTP(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, repositories.ErrUserNotFound),
		errors.Is(err, repositories.ErrQueueEntryNotFound),
		errors.Is(err, repositories.ErrBattleRoomNotFound),
		errors.Is(err, repositories.ErrGameRoomNotFound),
		errors.Is(err, repositories.ErrTournamentNotFound),
		errors.Is(err, repositories.ErrMatchNotFound),
		errors.Is(err, services.ErrNotInQueue):
		notFoundResponse(w, r)

	case errors.Is(err, repositories.ErrEmailExists),
		errors.Is(err, repositories.ErrUsernameExists),
		errors.Is(err, services.ErrAlreadyJoined),
		errors.Is(err, services.ErrTournamentFull),
		errors.Is(err, services.ErrRoomFull),
		errors.Is(err, services.ErrRoomAlreadyStarted),
		errors.Is(err, services.ErrRoomCancelled),
		errors.Is(err, services.ErrTournamentNotJoinable),
		errors.Is(err, services.ErrTournamentNotActive),
		errors.Is(err, services.ErrNotBothReady),
		errors.Is(err, services.ErrOpponentMissing),
		errors.Is(err, services.ErrAlreadyAnswered),
		errors.Is(err, services.ErrAlreadyStartedLeave),
		errors.Is(err, services.ErrMatchInProgress),
		errors.Is(err, services.ErrMatchNotPlayable),
		errors.Is(err, services.ErrNoPendingMatches),
		errors.Is(err, services.ErrGameNotActive):
		conflictResponse(w, r, err.Error())

	case errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrInvalidSubject),
		errors.Is(err, services.ErrInvalidDuration),
		errors.Is(err, services.ErrInvalidGameMode),
		errors.Is(err, services.ErrInvalidTier),
		errors.Is(err, services.ErrSelfJoin),
		errors.Is(err, services.ErrChatMessageEmpty),
		errors.Is(err, services.ErrChatMessageTooLong):
		badRequestResponse(w, r, err)

	case errors.Is(err, services.ErrInvalidCredentials):
		unauthorizedResponse(w, r, err.Error())

	case errors.Is(err, services.ErrNotRoomHost),
		errors.Is(err, services.ErrNotRoomMember),
		errors.Is(err, services.ErrNotGamePlayer),
		errors.Is(err, services.ErrNotTournamentCreator),
		errors.Is(err, services.ErrNotParticipant),
		errors.Is(err, services.ErrCreatorCannotLeave):
		forbiddenResponse(w, r, err.Error())

	case errors.Is(err, services.ErrChatRateLimited):
		errorResponse(w, r, http.StatusTooManyRequests, err.Error())

	default:
		serverErrorResponse(w, r, err)
	}
}
