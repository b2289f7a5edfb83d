package app

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/artemav/huddle/internal/core"
	"github.com/artemav/huddle/internal/protocol"
)

var (
	ErrTargetNotFound    = errors.New("target not found")
	ErrMissingParameters = errors.New("missing parameters")
	ErrUnknownRelayKind  = errors.New("unknown relay kind")
)

// Relay forwards addressed signaling payloads between two connections.
// It is payload-agnostic: SDP and ICE contents pass through opaque and
// room co-membership is deliberately not enforced.
type Relay struct {
	sessions *SessionRegistry
}

func NewRelay(sessions *SessionRegistry) *Relay {
	return &Relay{sessions: sessions}
}

// payloadRequired marks relay kinds that must carry a non-empty payload.
// renegotiation-needed is a bare notification.
var payloadRequired = map[string]bool{
	protocol.KindOffer:             true,
	protocol.KindAnswer:            true,
	protocol.KindICECandidate:      true,
	protocol.KindRenegotiation:     false,
	protocol.KindConnectionQuality: true,
}

// Forward delivers an envelope to the target connection only. Errors are
// for the sender alone; nothing is ever surfaced to the target.
func (r *Relay) Forward(from core.PeerSession, target core.ConnectionID, kind string, payload json.RawMessage) error {
	required, ok := payloadRequired[kind]
	if !ok {
		return ErrUnknownRelayKind
	}
	if target == "" {
		return ErrMissingParameters
	}
	if required && emptyPayload(payload) {
		return ErrMissingParameters
	}

	dst, ok := r.sessions.Get(target)
	if !ok {
		return ErrTargetNotFound
	}

	outKind := kind
	if kind == protocol.KindConnectionQuality {
		outKind = protocol.KindPeerQuality
	}
	env := protocol.RelayEnvelope{
		Type:             outKind,
		FromUserID:       from.User().ID,
		FromConnectionID: string(from.ID()),
		FromUserName:     from.User().DisplayName,
		Payload:          payload,
		ServerTimestamp:  time.Now(),
	}
	frame, err := json.Marshal(env)
	if err != nil {
		return err
	}
	if err := dst.Signal().TrySend(frame); err != nil {
		// Slow consumer. Delivery is best effort, same as a broadcast drop.
		log.Warn().Str("module", "app.relay").
			Str("kind", kind).
			Str("from", string(from.ID())).
			Str("target", string(target)).
			Err(err).
			Msg("relay delivery dropped")
	}
	return nil
}

func emptyPayload(p json.RawMessage) bool {
	switch string(p) {
	case "", "null", "{}", `""`:
		return true
	}
	return false
}
