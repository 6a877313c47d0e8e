package equipment

import (
	"net/http"

	"campus/infras/otel"
	"campus/internal/domains/equipment/model"
	"campus/internal/domains/equipment/model/dto"
	"campus/internal/domains/equipment/service"
	"campus/shared"
	"campus/shared/constant"
	gDto "campus/shared/dto"
	"campus/shared/validator"
	"campus/transport/http/response"

	"github.com/go-chi/chi/v5"

	"github.com/rs/zerolog/log"
)

type Handler struct {
	service service.Equipment
	otel    otel.Otel
}

func New(service service.Equipment, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/equipment", func(routerGroup chi.Router) {
		routerGroup.Post("/", handler.CreateEquipment)
		routerGroup.Get("/", handler.GetEquipments)
		routerGroup.Get("/{id}", handler.GetEquipmentByID)
		routerGroup.Patch("/{id}", handler.UpdateEquipment)
		routerGroup.Delete("/{id}", handler.DeleteEquipment)
		routerGroup.Patch("/{id}/use", handler.BeginUse)
		routerGroup.Delete("/{id}/use", handler.EndUse)
	})
}

// CreateEquipment handles the creation of a new equipment item.
// @Summary Create a new equipment item
// @Description Create a new equipment item in the caller's school. Requires admin standing.
// @Tags Equipment
// @Accept json
// @Produce json
// @Param request body dto.CreateEquipmentRequest true "Create Equipment Request"
// @Success 201 {object} response.Message "Equipment created successfully"
// @Failure 400 {object} response.Error
// @Failure 403 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/equipment [post]
// @Security BearerAuth
func (handler *Handler) CreateEquipment(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CreateEquipment")
	defer scope.End()

	req := dto.CreateEquipmentRequest{}

	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	if err := handler.service.Create(ctx, req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to create equipment")

		response.WithError(writer, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Equipment created successfully by user " + user)

	response.WithMessage(writer, http.StatusCreated, "Equipment created successfully")
}

// GetEquipments retrieves the equipment of the caller's school.
// @Summary Get all equipment
// @Description Retrieve the equipment of the caller's school with optional filtering and pagination.
// @Tags Equipment
// @Accept json
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Param name query string false "Filter by name (substring match)"
// @Param is_available query boolean false "Filter by availability"
// @Param is_occupied query boolean false "Filter by occupancy"
// @Success 200 {object} response.Data[dto.GetEquipmentsResponse] "List of equipment"
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/equipment [get]
// @Security BearerAuth
func (handler *Handler) GetEquipments(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetEquipments")
	defer scope.End()

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(r, true)

	name := r.URL.Query().Get(model.FieldName)
	isAvailable := shared.ConvertStringToBool(r.URL.Query().Get(model.FieldIsAvailable))
	isOccupied := shared.ConvertStringToBool(r.URL.Query().Get(model.FieldIsOccupied))

	filterGroup := gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters:  []any{},
	}

	if name != "" {
		filterGroup.Filters = append(filterGroup.Filters, gDto.Filter{
			Field:    model.FieldName,
			Operator: gDto.FilterOperatorLike,
			Value:    name,
			Table:    model.TableName,
		})
	}

	if isAvailable != nil {
		filterGroup.Filters = append(filterGroup.Filters, gDto.Filter{
			Field:    model.FieldIsAvailable,
			Operator: gDto.FilterOperatorEq,
			Value:    *isAvailable,
			Table:    model.TableName,
		})
	}

	if isOccupied != nil {
		filterGroup.Filters = append(filterGroup.Filters, gDto.Filter{
			Field:    model.FieldIsOccupied,
			Operator: gDto.FilterOperatorEq,
			Value:    *isOccupied,
			Table:    model.TableName,
		})
	}

	equipments, err := handler.service.GetAll(ctx, queryParams, filterGroup)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get equipments")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Equipments retrieved successfully")

	response.WithJSON(w, http.StatusOK, equipments)
}

// GetEquipmentByID retrieves an equipment item with its usage history.
// @Summary Get an equipment item by ID
// @Description Retrieve an equipment item by its unique identifier, including usage records and derived stats.
// @Tags Equipment
// @Accept json
// @Produce json
// @Param id path string true "Equipment ID"
// @Success 200 {object} response.Data[dto.EquipmentDetailResponse] "Equipment details"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/equipment/{id} [get]
// @Security BearerAuth
func (handler *Handler) GetEquipmentByID(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetEquipmentByID")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	equipment, err := handler.service.Get(ctx, id)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get equipment by ID")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Equipment retrieved successfully")

	response.WithJSON(w, http.StatusOK, equipment)
}

// UpdateEquipment updates an existing equipment item by its ID.
// @Summary Update an equipment item by ID
// @Description Update the details of an existing equipment item. Requires admin standing.
// @Tags Equipment
// @Accept json
// @Produce json
// @Param id path string true "Equipment ID"
// @Param request body dto.UpdateEquipmentRequest true "Update Equipment Request"
// @Success 200 {object} response.Message "Equipment updated successfully"
// @Failure 400 {object} response.Error
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/equipment/{id} [patch]
// @Security BearerAuth
func (handler *Handler) UpdateEquipment(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".UpdateEquipment")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	req := dto.UpdateEquipmentRequest{}
	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	if err := handler.service.Update(ctx, req, id); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to update equipment")

		response.WithError(w, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Equipment updated successfully by user " + user)

	response.WithMessage(w, http.StatusOK, "Equipment updated successfully")
}

// DeleteEquipment deletes an equipment item by its ID.
// @Summary Delete an equipment item by ID
// @Description Delete an equipment item and its usage records. Requires admin standing.
// @Tags Equipment
// @Accept json
// @Produce json
// @Param id path string true "Equipment ID"
// @Success 200 {object} response.Message "Equipment deleted successfully"
// @Failure 400 {object} response.Error
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/equipment/{id} [delete]
// @Security BearerAuth
func (handler *Handler) DeleteEquipment(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".DeleteEquipment")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	if err := handler.service.Delete(ctx, id); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to delete equipment")

		response.WithError(w, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Equipment deleted successfully by user " + user)

	response.WithMessage(w, http.StatusOK, "Equipment deleted successfully")
}

// BeginUse marks an equipment item as in use by the caller.
// @Summary Begin using an equipment item
// @Description Flip the equipment to occupied and open a usage record. Fails with 409 when someone already holds it.
// @Tags Equipment
// @Accept json
// @Produce json
// @Param id path string true "Equipment ID"
// @Success 200 {object} response.Message "Equipment use started"
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/equipment/{id}/use [patch]
// @Security BearerAuth
func (handler *Handler) BeginUse(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".BeginUse")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	if err := handler.service.BeginUse(ctx, id); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to begin equipment use")

		response.WithError(w, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Equipment use started by user " + user)

	response.WithMessage(w, http.StatusOK, "Equipment use started")
}

// EndUse ends the caller's active use of an equipment item.
// @Summary Stop using an equipment item
// @Description Close the caller's open usage record and free the equipment. Fails with 409 when the equipment is free or the caller holds no open record.
// @Tags Equipment
// @Accept json
// @Produce json
// @Param id path string true "Equipment ID"
// @Success 200 {object} response.Message "Equipment use ended"
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/equipment/{id}/use [delete]
// @Security BearerAuth
func (handler *Handler) EndUse(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".EndUse")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	if err := handler.service.EndUse(ctx, id); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to end equipment use")

		response.WithError(w, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Equipment use ended by user " + user)

	response.WithMessage(w, http.StatusOK, "Equipment use ended")
}
