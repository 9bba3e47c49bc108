package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rakshitjain7rj/erp-web-app-sub004/internal/dashboard"
	"github.com/rakshitjain7rj/erp-web-app-sub004/internal/dyeing"
	"github.com/rakshitjain7rj/erp-web-app-sub004/internal/inventory"
	"github.com/rakshitjain7rj/erp-web-app-sub004/internal/machines"
	"github.com/rakshitjain7rj/erp-web-app-sub004/internal/parties"
	"github.com/rakshitjain7rj/erp-web-app-sub004/internal/production"
	"go.uber.org/zap"
)

var (
	errMissingMachines     = errors.New("machines service dependency required")
	errMissingOrchestrator = errors.New("production orchestrator dependency required")
	errMissingAggregator   = errors.New("production aggregator dependency required")
	errMissingParties      = errors.New("parties service dependency required")
	errMissingDyeing       = errors.New("dyeing service dependency required")
	errMissingInventory    = errors.New("inventory service dependency required")
	errMissingDashboard    = errors.New("dashboard service dependency required")
)

// Dependencies carries the services the router exposes.
type Dependencies struct {
	Machines     *machines.Service
	Orchestrator *production.Orchestrator
	Aggregator   *production.Aggregator
	Parties      *parties.Service
	Dyeing       *dyeing.Service
	Inventory    *inventory.Service
	Dashboard    *dashboard.Service
	Logger       *zap.Logger
}

// NewHTTPHandler wires the REST surface.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.Machines == nil {
		return nil, errMissingMachines
	}
	if deps.Orchestrator == nil {
		return nil, errMissingOrchestrator
	}
	if deps.Aggregator == nil {
		return nil, errMissingAggregator
	}
	if deps.Parties == nil {
		return nil, errMissingParties
	}
	if deps.Dyeing == nil {
		return nil, errMissingDyeing
	}
	if deps.Inventory == nil {
		return nil, errMissingInventory
	}
	if deps.Dashboard == nil {
		return nil, errMissingDashboard
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	handler := &httpHandler{deps: deps, logger: logger}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")

	api.GET("/machines", handler.handleListMachines)
	api.POST("/machines", handler.handleCreateMachine)
	api.PUT("/machines/:id", handler.handleUpdateMachine)
	api.POST("/machines/:id/archive", handler.handleArchiveMachine)
	api.DELETE("/machines/:id/force", handler.handleForceDeleteMachine)
	api.GET("/machines/:id/config-history", handler.handleMachineConfigHistory)

	api.GET("/production", handler.handleListProduction)
	api.POST("/production", handler.handleCreateProduction)
	api.PUT("/production", handler.handleUpdateProduction)
	api.DELETE("/production/:id", handler.handleDeleteProduction)

	api.GET("/parties", handler.handleListParties)
	api.POST("/parties", handler.handleCreateParty)
	api.PUT("/parties/:id", handler.handleUpdateParty)
	api.DELETE("/parties/:id", handler.handleDeleteParty)

	api.GET("/dyeing/firms", handler.handleListFirms)
	api.POST("/dyeing/firms", handler.handleCreateFirm)
	api.GET("/dyeing/orders", handler.handleListOrders)
	api.POST("/dyeing/orders", handler.handleCreateOrder)
	api.POST("/dyeing/orders/:id/status", handler.handleTransitionOrder)
	api.DELETE("/dyeing/orders/:id", handler.handleDeleteOrder)

	api.GET("/inventory", handler.handleListStock)
	api.POST("/inventory", handler.handleRecordStock)
	api.DELETE("/inventory/:id", handler.handleDeleteStock)
	api.GET("/inventory/summary", handler.handleStockSummary)

	api.GET("/dashboard/yarn-summary", handler.handleYarnSummary)
	api.GET("/dashboard/machine-summary", handler.handleMachineSummary)
	api.GET("/dashboard/party-summary", handler.handlePartySummary)

	return router, nil
}

type httpHandler struct {
	deps   Dependencies
	logger *zap.Logger
}

func (h *httpHandler) respondError(c *gin.Context, err error) {
	var partial *production.PartialFailureError
	switch {
	case errors.As(err, &partial):
		c.JSON(http.StatusBadGateway, gin.H{
			"error":          "partial_failure",
			"machine_number": partial.MachineNumber,
			"date":           partial.Date,
			"failed_shift":   string(partial.FailedShift),
			"detail":         partial.Cause.Error(),
		})
	case errors.Is(err, production.ErrValidation),
		errors.Is(err, production.ErrUnknownShift),
		errors.Is(err, production.ErrInvalidDate),
		errors.Is(err, machines.ErrInvalidUnit),
		errors.Is(err, machines.ErrInvalidMachineNumber),
		errors.Is(err, machines.ErrInvalidCount),
		errors.Is(err, parties.ErrInvalidName),
		errors.Is(err, dyeing.ErrInvalidOrder),
		errors.Is(err, dyeing.ErrUnknownStatus),
		errors.Is(err, inventory.ErrInvalidEntry),
		errors.Is(err, inventory.ErrUnknownMovement):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "detail": err.Error()})
	case errors.Is(err, production.ErrNotFound),
		errors.Is(err, machines.ErrMachineNotFound),
		errors.Is(err, parties.ErrPartyNotFound),
		errors.Is(err, dyeing.ErrOrderNotFound),
		errors.Is(err, dyeing.ErrFirmNotFound),
		errors.Is(err, inventory.ErrEntryNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "detail": err.Error()})
	case errors.Is(err, production.ErrConflict),
		errors.Is(err, machines.ErrDuplicateMachineNumber),
		errors.Is(err, dyeing.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": "conflict", "detail": err.Error()})
	case errors.Is(err, production.ErrTransientIO):
		c.JSON(http.StatusBadGateway, gin.H{"error": "upstream_unavailable", "detail": err.Error()})
	default:
		h.logger.Error("request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}

func parseIDParam(c *gin.Context) (uint, bool) {
	raw := c.Param("id")
	value, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || value == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_id"})
		return 0, false
	}
	return uint(value), true
}

// --- machines ---

type machinePayload struct {
	UnitID          int     `json:"unit_id"`
	MachineNumber   int     `json:"machine_number"`
	Name            string  `json:"machine_name"`
	YarnType        string  `json:"yarn_type"`
	Count           string  `json:"count"`
	Spindles        int     `json:"spindles"`
	SpeedRPM        float64 `json:"speed_rpm"`
	ProductionAt100 float64 `json:"production_at_100"`
}

func (p machinePayload) toInput() machines.MachineInput {
	return machines.MachineInput{
		UnitID:          p.UnitID,
		MachineNumber:   p.MachineNumber,
		Name:            p.Name,
		YarnType:        p.YarnType,
		Count:           p.Count,
		Spindles:        p.Spindles,
		SpeedRPM:        p.SpeedRPM,
		ProductionAt100: p.ProductionAt100,
	}
}

type machineResponse struct {
	ID              uint    `json:"id"`
	UnitID          int     `json:"unit_id"`
	MachineNumber   int     `json:"machine_number"`
	Name            string  `json:"machine_name"`
	YarnType        string  `json:"yarn_type"`
	Count           string  `json:"count"`
	CountValue      float64 `json:"count_value"`
	Spindles        int     `json:"spindles"`
	SpeedRPM        float64 `json:"speed_rpm"`
	ProductionAt100 float64 `json:"production_at_100"`
	IsActive        bool    `json:"is_active"`
}

func toMachineResponse(machine machines.Machine) machineResponse {
	return machineResponse{
		ID:              machine.ID,
		UnitID:          machine.UnitID,
		MachineNumber:   machine.MachineNumber,
		Name:            machine.Name,
		YarnType:        machine.YarnType,
		Count:           machine.CountText,
		CountValue:      machine.CountValue,
		Spindles:        machine.Spindles,
		SpeedRPM:        machine.SpeedRPM,
		ProductionAt100: machine.ProductionAt100,
		IsActive:        machine.IsActive,
	}
}

func (h *httpHandler) handleListMachines(c *gin.Context) {
	unit, _ := strconv.Atoi(c.Query("unit"))
	includeArchived := c.Query("include_archived") == "true"
	items, err := h.deps.Machines.List(c.Request.Context(), unit, includeArchived)
	if err != nil {
		h.respondError(c, err)
		return
	}
	out := make([]machineResponse, 0, len(items))
	for _, machine := range items {
		out = append(out, toMachineResponse(machine))
	}
	c.JSON(http.StatusOK, gin.H{"machines": out})
}

func (h *httpHandler) handleCreateMachine(c *gin.Context) {
	var payload machinePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	machine, err := h.deps.Machines.Create(c.Request.Context(), payload.toInput())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toMachineResponse(machine))
}

func (h *httpHandler) handleUpdateMachine(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var payload machinePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	machine, err := h.deps.Machines.Update(c.Request.Context(), id, payload.toInput())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toMachineResponse(machine))
}

func (h *httpHandler) handleArchiveMachine(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := h.deps.Machines.Archive(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"archived": true})
}

func (h *httpHandler) handleForceDeleteMachine(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := h.deps.Machines.ForceDelete(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (h *httpHandler) handleMachineConfigHistory(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	snapshots, err := h.deps.Machines.ConfigHistory(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	type snapshotPayload struct {
		CountValue      float64 `json:"count_value"`
		YarnType        string  `json:"yarn_type"`
		Spindles        int     `json:"spindles"`
		SpeedRPM        float64 `json:"speed_rpm"`
		ProductionAt100 float64 `json:"production_at_100"`
		EffectiveDate   string  `json:"effective_date"`
	}
	out := make([]snapshotPayload, 0, len(snapshots))
	for _, snapshot := range snapshots {
		out = append(out, snapshotPayload{
			CountValue:      snapshot.CountValue,
			YarnType:        snapshot.YarnType,
			Spindles:        snapshot.Spindles,
			SpeedRPM:        snapshot.SpeedRPM,
			ProductionAt100: snapshot.ProductionAt100,
			EffectiveDate:   snapshot.EffectiveDate,
		})
	}
	c.JSON(http.StatusOK, gin.H{"history": out})
}

// --- production ---

type productionPayload struct {
	UnitID                int     `json:"unit_id"`
	MachineNumber         int     `json:"machine_number"`
	Date                  string  `json:"date"`
	DayQuantity           float64 `json:"day_quantity"`
	NightQuantity         float64 `json:"night_quantity"`
	DayWorker             string  `json:"day_worker"`
	NightWorker           string  `json:"night_worker"`
	DayMains              float64 `json:"day_mains_reading"`
	NightMains            float64 `json:"night_mains_reading"`
	YarnType              string  `json:"yarn_type"`
	TheoreticalProduction float64 `json:"theoretical_production"`
}

func (p productionPayload) toInput() production.PairInput {
	unit := p.UnitID
	if unit == 0 {
		unit = 1
	}
	return production.PairInput{
		UnitID:                unit,
		MachineNumber:         p.MachineNumber,
		Date:                  p.Date,
		DayQuantity:           p.DayQuantity,
		NightQuantity:         p.NightQuantity,
		DayWorker:             p.DayWorker,
		NightWorker:           p.NightWorker,
		DayMains:              p.DayMains,
		NightMains:            p.NightMains,
		YarnType:              p.YarnType,
		TheoreticalProduction: p.TheoreticalProduction,
	}
}

type shiftSlotPayload struct {
	RecordID     uint    `json:"record_id,omitempty"`
	Quantity     float64 `json:"quantity"`
	WorkerName   string  `json:"worker_name,omitempty"`
	MainsReading float64 `json:"mains_reading,omitempty"`
	Synthesized  bool    `json:"synthesized,omitempty"`
}

type combinedEntryPayload struct {
	UnitID                int              `json:"unit_id"`
	MachineNumber         int              `json:"machine_number"`
	Date                  string           `json:"date"`
	YarnType              string           `json:"yarn_type,omitempty"`
	Day                   shiftSlotPayload `json:"day"`
	Night                 shiftSlotPayload `json:"night"`
	Total                 float64          `json:"total"`
	TheoreticalProduction float64          `json:"theoretical_production"`
	Percentage            float64          `json:"percentage"`
}

func toCombinedPayload(entry production.CombinedEntry) combinedEntryPayload {
	toSlot := func(slot production.ShiftSlot) shiftSlotPayload {
		return shiftSlotPayload{
			RecordID:     slot.RecordID,
			Quantity:     slot.Quantity,
			WorkerName:   slot.WorkerName,
			MainsReading: slot.MainsReading,
			Synthesized:  slot.Synthesized,
		}
	}
	return combinedEntryPayload{
		UnitID:                entry.UnitID,
		MachineNumber:         entry.MachineNumber,
		Date:                  entry.Date,
		YarnType:              entry.YarnType,
		Day:                   toSlot(entry.Day),
		Night:                 toSlot(entry.Night),
		Total:                 entry.Total,
		TheoreticalProduction: entry.TheoreticalProduction,
		Percentage:            entry.Percentage,
	}
}

func (h *httpHandler) handleListProduction(c *gin.Context) {
	filter := production.Filter{
		DateFrom: c.Query("date_from"),
		DateTo:   c.Query("date_to"),
	}
	filter.UnitID, _ = strconv.Atoi(c.Query("unit"))
	if raw := c.Query("machine_number"); raw != "" {
		number, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_machine_number"})
			return
		}
		filter.MachineNumber = &number
	}
	filter.Page, _ = strconv.Atoi(c.Query("page"))
	filter.Limit, _ = strconv.Atoi(c.Query("limit"))

	page, err := h.deps.Aggregator.ListCombined(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}

	items := make([]combinedEntryPayload, 0, len(page.Items))
	for _, entry := range page.Items {
		items = append(items, toCombinedPayload(entry))
	}
	c.JSON(http.StatusOK, gin.H{
		"items":       items,
		"total":       page.Total,
		"page":        page.Page,
		"limit":       page.Limit,
		"total_pages": page.TotalPages,
	})
}

func (h *httpHandler) submitProduction(c *gin.Context, submit func(production.PairInput) (production.SubmissionResult, error)) {
	var payload productionPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	result, err := submit(payload.toInput())
	if err != nil {
		h.respondError(c, err)
		return
	}
	response := gin.H{"state": string(result.State)}
	if result.Pair.Day != nil {
		response["day_record_id"] = result.Pair.Day.ID
	}
	if result.Pair.Night != nil {
		response["night_record_id"] = result.Pair.Night.ID
	}
	c.JSON(http.StatusOK, response)
}

func (h *httpHandler) handleCreateProduction(c *gin.Context) {
	h.submitProduction(c, func(input production.PairInput) (production.SubmissionResult, error) {
		return h.deps.Orchestrator.Create(c.Request.Context(), input)
	})
}

func (h *httpHandler) handleUpdateProduction(c *gin.Context) {
	h.submitProduction(c, func(input production.PairInput) (production.SubmissionResult, error) {
		return h.deps.Orchestrator.Update(c.Request.Context(), input)
	})
}

func (h *httpHandler) handleDeleteProduction(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := h.deps.Orchestrator.Delete(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// --- parties ---

type partyPayload struct {
	Name          string `json:"name"`
	ContactPerson string `json:"contact_person"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
}

func (h *httpHandler) handleListParties(c *gin.Context) {
	items, err := h.deps.Parties.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"parties": items})
}

func (h *httpHandler) handleCreateParty(c *gin.Context) {
	var payload partyPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	party, err := h.deps.Parties.FindOrCreate(c.Request.Context(), parties.PartyInput{
		Name:          payload.Name,
		ContactPerson: payload.ContactPerson,
		Phone:         payload.Phone,
		Address:       payload.Address,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, party)
}

func (h *httpHandler) handleUpdateParty(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var payload partyPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	party, err := h.deps.Parties.Update(c.Request.Context(), id, parties.PartyInput{
		Name:          payload.Name,
		ContactPerson: payload.ContactPerson,
		Phone:         payload.Phone,
		Address:       payload.Address,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, party)
}

func (h *httpHandler) handleDeleteParty(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := h.deps.Parties.Delete(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// --- dyeing ---

func (h *httpHandler) handleListFirms(c *gin.Context) {
	firms, err := h.deps.Dyeing.ListFirms(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"firms": firms})
}

func (h *httpHandler) handleCreateFirm(c *gin.Context) {
	var payload struct {
		Name          string `json:"name"`
		ContactPerson string `json:"contact_person"`
		Phone         string `json:"phone"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	firm, err := h.deps.Dyeing.FindOrCreateFirm(c.Request.Context(), payload.Name, payload.ContactPerson, payload.Phone)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, firm)
}

func (h *httpHandler) handleListOrders(c *gin.Context) {
	filter := dyeing.OrderFilter{}
	if raw := c.Query("party_id"); raw != "" {
		value, _ := strconv.ParseUint(raw, 10, 32)
		filter.PartyID = uint(value)
	}
	if raw := c.Query("firm_id"); raw != "" {
		value, _ := strconv.ParseUint(raw, 10, 32)
		filter.FirmID = uint(value)
	}
	if raw := c.Query("status"); raw != "" {
		status, err := dyeing.ParseOrderStatus(raw)
		if err != nil {
			h.respondError(c, err)
			return
		}
		filter.Status = status
	}
	orders, err := h.deps.Dyeing.ListOrders(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (h *httpHandler) handleCreateOrder(c *gin.Context) {
	var payload struct {
		PartyID            uint    `json:"party_id"`
		FirmID             uint    `json:"firm_id"`
		FirmName           string  `json:"firm_name"`
		Count              string  `json:"count"`
		Shade              string  `json:"shade"`
		Quantity           float64 `json:"quantity"`
		SentDate           string  `json:"sent_date"`
		ExpectedReturnDate string  `json:"expected_return_date"`
		Remarks            string  `json:"remarks"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	order, err := h.deps.Dyeing.CreateOrder(c.Request.Context(), dyeing.OrderInput{
		PartyID:            payload.PartyID,
		FirmID:             payload.FirmID,
		FirmName:           payload.FirmName,
		Count:              payload.Count,
		Shade:              payload.Shade,
		Quantity:           payload.Quantity,
		SentDate:           payload.SentDate,
		ExpectedReturnDate: payload.ExpectedReturnDate,
		Remarks:            payload.Remarks,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *httpHandler) handleTransitionOrder(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var payload struct {
		Status           string  `json:"status"`
		ReceivedQuantity float64 `json:"received_quantity"`
		ReceivedDate     string  `json:"received_date"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	status, err := dyeing.ParseOrderStatus(payload.Status)
	if err != nil {
		h.respondError(c, err)
		return
	}
	order, err := h.deps.Dyeing.TransitionOrder(c.Request.Context(), id, status, payload.ReceivedQuantity, payload.ReceivedDate)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *httpHandler) handleDeleteOrder(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := h.deps.Dyeing.DeleteOrder(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// --- inventory ---

func (h *httpHandler) handleListStock(c *gin.Context) {
	entries, err := h.deps.Inventory.List(c.Request.Context(), c.Query("count"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func (h *httpHandler) handleRecordStock(c *gin.Context) {
	var payload struct {
		Count     string  `json:"count"`
		YarnType  string  `json:"yarn_type"`
		Lot       string  `json:"lot"`
		Movement  string  `json:"movement"`
		Quantity  float64 `json:"quantity"`
		Remarks   string  `json:"remarks"`
		EntryDate string  `json:"entry_date"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	movement, err := inventory.ParseMovementKind(payload.Movement)
	if err != nil {
		h.respondError(c, err)
		return
	}
	entry, err := h.deps.Inventory.Record(c.Request.Context(), inventory.EntryInput{
		Count:     payload.Count,
		YarnType:  payload.YarnType,
		Lot:       payload.Lot,
		Movement:  movement,
		Quantity:  payload.Quantity,
		Remarks:   payload.Remarks,
		EntryDate: payload.EntryDate,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

func (h *httpHandler) handleDeleteStock(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := h.deps.Inventory.Delete(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (h *httpHandler) handleStockSummary(c *gin.Context) {
	summary, err := h.deps.Inventory.Summary(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

// --- dashboard ---

func (h *httpHandler) handleYarnSummary(c *gin.Context) {
	unit, _ := strconv.Atoi(c.Query("unit"))
	summary, err := h.deps.Dashboard.YarnSummary(c.Request.Context(), unit, c.Query("date_from"), c.Query("date_to"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

func (h *httpHandler) handleMachineSummary(c *gin.Context) {
	unit, _ := strconv.Atoi(c.Query("unit"))
	summary, err := h.deps.Dashboard.MachineSummary(c.Request.Context(), unit, c.Query("date_from"), c.Query("date_to"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

func (h *httpHandler) handlePartySummary(c *gin.Context) {
	summary, err := h.deps.Dashboard.PartySummary(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": summary})
}
