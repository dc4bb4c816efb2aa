package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nouridin/supershop/internal/domain"
	"github.com/nouridin/supershop/internal/logger"
	"github.com/nouridin/supershop/internal/shop"
)

// CreateShopRequest represents the request to register a new shop.
type CreateShopRequest struct {
	OwnerID   string          `json:"owner_id" validate:"required,uuid"`
	OwnerName string          `json:"owner_name" validate:"required,max=16"`
	Location  domain.Location `json:"location" validate:"required"`
}

// HandleCreateShop registers a new shop at an unoccupied location.
func HandleCreateShop(svc shop.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())

		var req CreateShopRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Error("Failed to decode create shop request", "error", err)
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if err := GetValidator().ValidateStruct(req); err != nil {
			log.Warn("Create shop validation failed", "error", err)
			respondJSON(w, http.StatusBadRequest, FormatValidationError(err))
			return
		}
		if req.Location.World == "" {
			respondError(w, http.StatusBadRequest, "World name is required")
			return
		}

		ownerID, err := uuid.Parse(req.OwnerID)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid owner id")
			return
		}

		created, err := svc.CreateShop(r.Context(), ownerID, req.OwnerName, req.Location)
		if err != nil {
			log.Warn("Failed to create shop", "error", err, "owner", req.OwnerName)
			status, msg := mapServiceErrorToUserMessage(err)
			respondError(w, status, msg)
			return
		}

		respondJSON(w, http.StatusCreated, created)
	}
}

// HandleGetShop returns the shop with the given id.
func HandleGetShop(svc shop.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shopID, ok := pathUUID(w, r, "shopID")
		if !ok {
			return
		}

		found, err := svc.GetShopByID(shopID)
		if err != nil {
			status, msg := mapServiceErrorToUserMessage(err)
			respondError(w, status, msg)
			return
		}
		respondJSON(w, http.StatusOK, found)
	}
}

// HandleListShops returns every registered shop, or an owner's shops when
// the owner_id query parameter is present.
func HandleListShops(svc shop.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if raw := r.URL.Query().Get("owner_id"); raw != "" {
			ownerID, err := uuid.Parse(raw)
			if err != nil {
				respondError(w, http.StatusBadRequest, "Invalid owner id")
				return
			}
			respondJSON(w, http.StatusOK, svc.GetShopsByOwner(ownerID))
			return
		}
		respondJSON(w, http.StatusOK, svc.GetAllShops())
	}
}

// HandleGetShopAtLocation looks a shop up by world coordinates.
func HandleGetShopAtLocation(svc shop.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		loc, ok := queryLocation(w, r)
		if !ok {
			return
		}

		found, err := svc.GetShopAtLocation(loc)
		if err != nil {
			status, msg := mapServiceErrorToUserMessage(err)
			respondError(w, status, msg)
			return
		}
		respondJSON(w, http.StatusOK, found)
	}
}

// HandleSearchShops searches available listings across every active shop.
// Filters: q matches item names and descriptions, owner matches seller
// names, world/x/y/z set a distance origin and radius caps the distance.
func HandleSearchShops(svc shop.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params := r.URL.Query()
		query := shop.SearchQuery{
			Term:      params.Get("q"),
			OwnerName: params.Get("owner"),
		}

		if params.Get("world") != "" {
			origin, ok := queryLocation(w, r)
			if !ok {
				return
			}
			query.Origin = &origin

			if raw := params.Get("radius"); raw != "" {
				radius, err := strconv.ParseFloat(raw, 64)
				if err != nil || radius < 0 {
					respondError(w, http.StatusBadRequest, "Invalid radius")
					return
				}
				query.MaxDistance = radius
			}
		} else if params.Get("radius") != "" {
			respondError(w, http.StatusBadRequest, "Radius needs a world/x/y/z origin")
			return
		}

		respondJSON(w, http.StatusOK, svc.SearchItems(query))
	}
}

// RemoveShopRequest represents the request to remove a shop. Stock and
// revenue are settled to the settlement target, which defaults to the actor.
type RemoveShopRequest struct {
	ActorID          string `json:"actor_id" validate:"required,uuid"`
	SettlementTarget string `json:"settlement_target,omitempty" validate:"omitempty,uuid"`
}

// HandleRemoveShop removes a shop after settling its contents.
func HandleRemoveShop(svc shop.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())

		shopID, ok := pathUUID(w, r, "shopID")
		if !ok {
			return
		}

		var req RemoveShopRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Error("Failed to decode remove shop request", "error", err)
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if err := GetValidator().ValidateStruct(req); err != nil {
			respondJSON(w, http.StatusBadRequest, FormatValidationError(err))
			return
		}

		actorID, err := uuid.Parse(req.ActorID)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid actor id")
			return
		}
		target := actorID
		if req.SettlementTarget != "" {
			target, err = uuid.Parse(req.SettlementTarget)
			if err != nil {
				respondError(w, http.StatusBadRequest, "Invalid settlement target")
				return
			}
		}

		if err := svc.RemoveShop(r.Context(), shopID, actorID, target); err != nil {
			log.Warn("Failed to remove shop", "error", err, "shop_id", shopID)
			status, msg := mapServiceErrorToUserMessage(err)
			respondError(w, status, msg)
			return
		}
		respondJSON(w, http.StatusOK, SuccessResponse{Message: "Shop removed"})
	}
}

// ForceRemoveRequest represents the request to discard a shop without
// settlement. Allowed for the owner or an administrator.
type ForceRemoveRequest struct {
	ActorID string `json:"actor_id" validate:"required,uuid"`
}

// HandleForceRemoveShop discards a shop without settling its contents.
func HandleForceRemoveShop(svc shop.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())

		shopID, ok := pathUUID(w, r, "shopID")
		if !ok {
			return
		}

		var req ForceRemoveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		actorID, err := uuid.Parse(req.ActorID)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid actor id")
			return
		}

		if err := svc.ForceRemoveShop(r.Context(), shopID, actorID); err != nil {
			log.Warn("Failed to force remove shop", "error", err, "shop_id", shopID)
			status, msg := mapServiceErrorToUserMessage(err)
			respondError(w, status, msg)
			return
		}
		respondJSON(w, http.StatusOK, SuccessResponse{Message: "Shop removed"})
	}
}

// SetActiveRequest represents the request to toggle a shop's availability.
type SetActiveRequest struct {
	ActorID string `json:"actor_id" validate:"required,uuid"`
	Active  bool   `json:"active"`
}

// HandleSetShopActive toggles the open/closed state of a shop.
func HandleSetShopActive(svc shop.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shopID, ok := pathUUID(w, r, "shopID")
		if !ok {
			return
		}

		var req SetActiveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		actorID, err := uuid.Parse(req.ActorID)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid actor id")
			return
		}

		if err := svc.SetShopActive(r.Context(), shopID, actorID, req.Active); err != nil {
			status, msg := mapServiceErrorToUserMessage(err)
			respondError(w, status, msg)
			return
		}
		respondJSON(w, http.StatusOK, SuccessResponse{Message: "Shop updated"})
	}
}

// AddItemRequest represents the request to list an item for sale.
type AddItemRequest struct {
	ActorID     string             `json:"actor_id" validate:"required,uuid"`
	Payload     domain.ItemPayload `json:"payload"`
	Quantity    int                `json:"quantity" validate:"gte=0"`
	Price       []domain.ItemStack `json:"price"`
	Description string             `json:"description,omitempty" validate:"max=256"`
}

// HandleAddItem lists an item in a shop.
func HandleAddItem(svc shop.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())

		shopID, ok := pathUUID(w, r, "shopID")
		if !ok {
			return
		}

		var req AddItemRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Error("Failed to decode add item request", "error", err)
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if err := GetValidator().ValidateStruct(req); err != nil {
			respondJSON(w, http.StatusBadRequest, FormatValidationError(err))
			return
		}
		if req.Payload.Kind == "" {
			respondError(w, http.StatusBadRequest, "Item kind is required")
			return
		}
		for _, component := range req.Price {
			if component.Payload.Kind == "" || component.Count <= 0 {
				respondError(w, http.StatusBadRequest, "Price components need a kind and a positive count")
				return
			}
		}

		actorID, err := uuid.Parse(req.ActorID)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid actor id")
			return
		}

		item := domain.NewShopItem(req.Payload, req.Quantity, req.Price, req.Description)
		if err := svc.AddItemToShop(r.Context(), shopID, item, actorID); err != nil {
			log.Warn("Failed to add item", "error", err, "shop_id", shopID)
			status, msg := mapServiceErrorToUserMessage(err)
			respondError(w, status, msg)
			return
		}
		respondJSON(w, http.StatusCreated, item)
	}
}

// RestockRequest represents the request to add stock to a listing.
type RestockRequest struct {
	ActorID string `json:"actor_id" validate:"required,uuid"`
	Amount  int    `json:"amount" validate:"required,gt=0"`
}

// HandleRestockItem adds stock to an existing listing.
func HandleRestockItem(svc shop.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())

		shopID, ok := pathUUID(w, r, "shopID")
		if !ok {
			return
		}
		itemID, ok := pathUUID(w, r, "itemID")
		if !ok {
			return
		}

		var req RestockRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if err := GetValidator().ValidateStruct(req); err != nil {
			respondJSON(w, http.StatusBadRequest, FormatValidationError(err))
			return
		}
		actorID, err := uuid.Parse(req.ActorID)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid actor id")
			return
		}

		if err := svc.RestockItem(r.Context(), shopID, itemID, actorID, req.Amount); err != nil {
			log.Warn("Failed to restock item", "error", err, "shop_id", shopID, "item_id", itemID)
			status, msg := mapServiceErrorToUserMessage(err)
			respondError(w, status, msg)
			return
		}
		respondJSON(w, http.StatusOK, SuccessResponse{Message: "Item restocked"})
	}
}

// HandleRemoveItem delists an item from a shop. The acting user is taken
// from the actor_id query parameter.
func HandleRemoveItem(svc shop.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shopID, ok := pathUUID(w, r, "shopID")
		if !ok {
			return
		}
		itemID, ok := pathUUID(w, r, "itemID")
		if !ok {
			return
		}
		actorID, err := uuid.Parse(r.URL.Query().Get("actor_id"))
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid actor id")
			return
		}

		if err := svc.RemoveItemFromShop(r.Context(), shopID, itemID, actorID); err != nil {
			status, msg := mapServiceErrorToUserMessage(err)
			respondError(w, status, msg)
			return
		}
		respondJSON(w, http.StatusOK, SuccessResponse{Message: "Item removed"})
	}
}

// PurchaseRequest represents the request to buy units of a listed item.
type PurchaseRequest struct {
	BuyerID  string `json:"buyer_id" validate:"required,uuid"`
	Quantity int    `json:"quantity" validate:"required,gt=0"`
}

// HandlePurchase executes an all-or-nothing purchase.
func HandlePurchase(svc shop.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())

		shopID, ok := pathUUID(w, r, "shopID")
		if !ok {
			return
		}
		itemID, ok := pathUUID(w, r, "itemID")
		if !ok {
			return
		}

		var req PurchaseRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Error("Failed to decode purchase request", "error", err)
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if err := GetValidator().ValidateStruct(req); err != nil {
			respondJSON(w, http.StatusBadRequest, FormatValidationError(err))
			return
		}

		buyerID, err := uuid.Parse(req.BuyerID)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid buyer id")
			return
		}

		result, err := svc.ProcessPurchase(r.Context(), buyerID, shopID, itemID, req.Quantity)
		if err != nil {
			log.Warn("Purchase failed", "error", err, "shop_id", shopID, "item_id", itemID, "buyer_id", buyerID)
			status, msg := mapServiceErrorToUserMessage(err)
			respondError(w, status, msg)
			return
		}
		respondJSON(w, http.StatusOK, result)
	}
}

// CollectRevenueRequest represents the request to drain a shop's revenue.
type CollectRevenueRequest struct {
	ActorID string `json:"actor_id" validate:"required,uuid"`
}

// CollectRevenueResponse reports how many items the owner received.
type CollectRevenueResponse struct {
	Collected int `json:"collected"`
}

// HandleCollectRevenue drains the revenue pool into the owner's inventory.
func HandleCollectRevenue(svc shop.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())

		shopID, ok := pathUUID(w, r, "shopID")
		if !ok {
			return
		}

		var req CollectRevenueRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		actorID, err := uuid.Parse(req.ActorID)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid actor id")
			return
		}

		collected, err := svc.CollectRevenue(r.Context(), shopID, actorID)
		if err != nil {
			log.Warn("Failed to collect revenue", "error", err, "shop_id", shopID)
			status, msg := mapServiceErrorToUserMessage(err)
			respondError(w, status, msg)
			return
		}
		respondJSON(w, http.StatusOK, CollectRevenueResponse{Collected: collected})
	}
}

// HandleGetStatistics returns aggregate counters across all shops.
func HandleGetStatistics(svc shop.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, svc.GetShopStatistics())
	}
}

// pathUUID parses a UUID path parameter, responding with 400 on failure.
func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}
