package handlers

import (
	"net/http"
	"time"

	"edubba/application/commands"
	"edubba/application/commands/bus"
	"edubba/application/ports"
	"edubba/application/queries"
	querybus "edubba/application/queries/bus"
	"edubba/domain/core/entities"
	"edubba/domain/core/valueobjects"
	"edubba/pkg/common"
	pkgerrors "edubba/pkg/errors"
	"edubba/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// NodeHandler handles memory node HTTP requests
type NodeHandler struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	errHandler *pkgerrors.ErrorHandler
	logger     *zap.Logger
}

// NewNodeHandler creates a new node handler
func NewNodeHandler(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	errHandler *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *NodeHandler {
	return &NodeHandler{
		commandBus: commandBus,
		queryBus:   queryBus,
		errHandler: errHandler,
		logger:     logger,
	}
}

// EscalateRequest represents the request body for reclassifying a node
type EscalateRequest struct {
	Classification valueobjects.DataClassification `json:"classification"`
	Artifact       *valueobjects.ArtifactPointer    `json:"artifact,omitempty"`
}

// RecallRequest represents the request body for recording a recall
type RecallRequest struct {
	DistortionScore float64    `json:"distortion_score"`
	At              *time.Time `json:"at,omitempty"`
}

// CreateNode handles POST /nodes. The body is a full node document; an
// omitted id is assigned here.
func (h *NodeHandler) CreateNode(w http.ResponseWriter, r *http.Request) {
	var fields entities.NodeFields
	if err := common.ParseJSONBody(w, r, &fields); err != nil {
		h.errHandler.Handle(w, r, err)
		return
	}
	if fields.ID == uuid.Nil {
		fields.ID = valueobjects.NewNodeID()
	}

	if err := h.commandBus.Send(r.Context(), commands.CreateMemoryNodeCommand{Fields: fields}); err != nil {
		h.errHandler.Handle(w, r, err)
		return
	}

	h.respondNode(w, r, fields.ID, http.StatusCreated)
}

// GetNode handles GET /nodes/{nodeID}
func (h *NodeHandler) GetNode(w http.ResponseWriter, r *http.Request) {
	id, ok := h.nodeID(w, r)
	if !ok {
		return
	}
	h.respondNode(w, r, id, http.StatusOK)
}

// ListNodes handles GET /nodes
func (h *NodeHandler) ListNodes(w http.ResponseWriter, r *http.Request) {
	filter, err := parseNodeFilter(r)
	if err != nil {
		h.errHandler.Handle(w, r, err)
		return
	}

	page, err := querybus.Ask[*queries.ListMemoryNodesResult](r.Context(), h.queryBus, queries.ListMemoryNodesQuery{Filter: filter})
	if err != nil {
		h.errHandler.Handle(w, r, err)
		return
	}

	common.RespondWithMeta(w, http.StatusOK, page.Nodes, &common.MetaInfo{
		RequestID:  middleware.GetReqID(r.Context()),
		Count:      page.Count,
		NextCursor: page.NextCursor,
	})
}

// EscalateNode handles POST /nodes/{nodeID}/escalate
func (h *NodeHandler) EscalateNode(w http.ResponseWriter, r *http.Request) {
	id, ok := h.nodeID(w, r)
	if !ok {
		return
	}

	var req EscalateRequest
	if err := common.ParseJSONBody(w, r, &req); err != nil {
		h.errHandler.Handle(w, r, err)
		return
	}

	cmd := commands.EscalateClassificationCommand{
		NodeID:         id,
		Classification: req.Classification,
		Artifact:       req.Artifact,
	}
	h.sendAndRespond(w, r, id, cmd)
}

// UpdateMastery handles PUT /nodes/{nodeID}/mastery
func (h *NodeHandler) UpdateMastery(w http.ResponseWriter, r *http.Request) {
	id, ok := h.nodeID(w, r)
	if !ok {
		return
	}

	var mastery valueobjects.MasteryState
	if err := common.ParseJSONBody(w, r, &mastery); err != nil {
		h.errHandler.Handle(w, r, err)
		return
	}
	if mastery.LastVerified.IsZero() {
		mastery.LastVerified = utils.NowUTC()
	}

	h.sendAndRespond(w, r, id, commands.UpdateMasteryCommand{NodeID: id, Mastery: mastery})
}

// RecordRecall handles POST /nodes/{nodeID}/recall
func (h *NodeHandler) RecordRecall(w http.ResponseWriter, r *http.Request) {
	id, ok := h.nodeID(w, r)
	if !ok {
		return
	}

	var req RecallRequest
	if err := common.ParseJSONBody(w, r, &req); err != nil {
		h.errHandler.Handle(w, r, err)
		return
	}

	cmd := commands.RecordRecallCommand{NodeID: id, DistortionScore: req.DistortionScore}
	if req.At != nil {
		cmd.At = *req.At
	}
	h.sendAndRespond(w, r, id, cmd)
}

// AddEdge handles POST /nodes/{nodeID}/edges
func (h *NodeHandler) AddEdge(w http.ResponseWriter, r *http.Request) {
	id, ok := h.nodeID(w, r)
	if !ok {
		return
	}

	var edge valueobjects.CausalEdge
	if err := common.ParseJSONBody(w, r, &edge); err != nil {
		h.errHandler.Handle(w, r, err)
		return
	}

	h.sendAndRespond(w, r, id, commands.LinkNodesCommand{SourceID: id, Edge: edge})
}

// DeleteNode handles DELETE /nodes/{nodeID}
func (h *NodeHandler) DeleteNode(w http.ResponseWriter, r *http.Request) {
	id, ok := h.nodeID(w, r)
	if !ok {
		return
	}

	if err := h.commandBus.Send(r.Context(), commands.DeleteMemoryNodeCommand{NodeID: id}); err != nil {
		h.errHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("Memory node deleted via API",
		zap.String("nodeID", id.String()),
		zap.String("requestID", middleware.GetReqID(r.Context())),
	)
	w.WriteHeader(http.StatusNoContent)
}

func (h *NodeHandler) sendAndRespond(w http.ResponseWriter, r *http.Request, id uuid.UUID, cmd bus.Command) {
	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.errHandler.Handle(w, r, err)
		return
	}
	h.respondNode(w, r, id, http.StatusOK)
}

// respondNode reads the node back through the query side so every
// response carries the stored form, derived values included.
func (h *NodeHandler) respondNode(w http.ResponseWriter, r *http.Request, id uuid.UUID, status int) {
	view, err := querybus.Ask[*queries.NodeView](r.Context(), h.queryBus, queries.GetMemoryNodeQuery{NodeID: id})
	if err != nil {
		h.errHandler.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, status, view)
}

func (h *NodeHandler) nodeID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := valueobjects.ParseNodeID(chi.URLParam(r, "nodeID"))
	if err != nil {
		h.errHandler.Handle(w, r, err)
		return uuid.Nil, false
	}
	return id, true
}

func parseNodeFilter(r *http.Request) (ports.NodeFilter, error) {
	page, err := common.ExtractPageParams(r)
	if err != nil {
		return ports.NodeFilter{}, err
	}
	minDissonance, err := common.ExtractFloatParam(r, "min_dissonance")
	if err != nil {
		return ports.NodeFilter{}, err
	}
	minProficiency, err := common.ExtractFloatParam(r, "min_proficiency")
	if err != nil {
		return ports.NodeFilter{}, err
	}

	q := r.URL.Query()
	return ports.NodeFilter{
		MinDissonance:  minDissonance,
		MinProficiency: minProficiency,
		Domain:         valueobjects.KnowledgeDomain(q.Get("domain")),
		Classification: valueobjects.DataClassification(q.Get("classification")),
		Type:           valueobjects.NodeType(q.Get("type")),
		Limit:          page.Limit,
		Cursor:         page.Cursor,
	}, nil
}

// HashResponse is the integrity hash of a provenance record
type HashResponse struct {
	IntegrityHash string `json:"integrity_hash"`
}

// ProvenanceHandler computes integrity hashes without storing anything
type ProvenanceHandler struct {
	errHandler *pkgerrors.ErrorHandler
}

// NewProvenanceHandler creates a new provenance handler
func NewProvenanceHandler(errHandler *pkgerrors.ErrorHandler) *ProvenanceHandler {
	return &ProvenanceHandler{errHandler: errHandler}
}

// Hash handles POST /provenance/hash
func (h *ProvenanceHandler) Hash(w http.ResponseWriter, r *http.Request) {
	var provenance valueobjects.ConsensusProvenance
	if err := common.ParseJSONBody(w, r, &provenance); err != nil {
		h.errHandler.Handle(w, r, err)
		return
	}
	if err := utils.ValidateStruct(provenance); err != nil {
		h.errHandler.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, HashResponse{IntegrityHash: provenance.IntegrityHash()})
}
