package handler

import (
	"github.com/gin-gonic/gin"

	"lumina/internal/api"
	"lumina/internal/apperr"
	"lumina/internal/broker"
	"lumina/internal/filter"
	"lumina/internal/views"
)

// StatusHandler answers the queue-status, self-describing filter DSL, and
// health endpoints of §6.
type StatusHandler struct {
	brokerClient *broker.Client
}

func NewStatusHandler(brokerClient *broker.Client) *StatusHandler {
	return &StatusHandler{brokerClient: brokerClient}
}

// QueueStatus handles GET /queue-status, relaying the broker's in-memory
// progress snapshot (§4.7) since the public server has no direct view of the
// Task Engine's drain loop running in another process.
func (h *StatusHandler) QueueStatus(c *gin.Context) {
	snap, err := h.brokerClient.QueueProgress()
	if err != nil {
		api.GinFromError(c, apperr.Busy(err))
		return
	}
	api.GinSuccess(c, snap)
}

// infoResponse is the self-describing filter DSL payload (§6): the field ->
// dsl-type map plus the dsl-type -> allowed-operators map.
type infoResponse struct {
	Fields   map[string]string   `json:"fields"`
	DSLTypes map[string][]string `json:"dsl_types"`
}

// Info handles GET /info.
func (h *StatusHandler) Info(c *gin.Context) {
	fields := make(map[string]string, len(views.MediaFields))
	seenTypes := map[filter.FieldType]bool{}
	for name, t := range views.MediaFields {
		fields[name] = t.String()
		seenTypes[t] = true
	}

	dslTypes := make(map[string][]string, len(seenTypes))
	for t := range seenTypes {
		ops := filter.OperatorsFor(t)
		names := make([]string, len(ops))
		for i, op := range ops {
			names[i] = string(op)
		}
		dslTypes[t.String()] = names
	}

	api.GinSuccess(c, infoResponse{Fields: fields, DSLTypes: dslTypes})
}

// Health handles a liveness probe; it never touches the database, matching
// the teacher's health handler's scope of "is the process up".
func (h *StatusHandler) Health(c *gin.Context) {
	api.GinSuccess(c, gin.H{"status": "ok"})
}
