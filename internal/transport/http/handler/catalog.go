package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"parts-assist/internal/app"
	"parts-assist/internal/retrieval"
	"parts-assist/internal/transport/http/response"
)

type CatalogHandler struct {
	catalogService *app.CatalogService
}

type SearchRequest struct {
	Query               string  `json:"query" binding:"required"`
	Limit               int     `json:"limit" binding:"omitempty,gt=0,lte=20"`
	ApplianceType       string  `json:"appliance_type" binding:"omitempty,max=32"`
	SimilarityThreshold float64 `json:"similarity_threshold" binding:"omitempty,gt=0,lte=2"`
}

type CompatibilityRequest struct {
	PartNumber  string `json:"part_number" binding:"required,max=64"`
	ModelNumber string `json:"model_number" binding:"required,max=64"`
}

func NewCatalogHandler(catalogService *app.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

func (h *CatalogHandler) Search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	results, err := h.catalogService.SearchProducts(c.Request.Context(), app.SearchProductsInput{
		Query:               req.Query,
		Limit:               req.Limit,
		ApplianceType:       req.ApplianceType,
		SimilarityThreshold: req.SimilarityThreshold,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, retrieval.ErrUnavailable):
			response.Error(c, http.StatusServiceUnavailable, response.CodeRetrievalUnavailable, "search is temporarily unavailable")
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "search failed")
		}
		return
	}

	response.OK(c, gin.H{
		"query":   req.Query,
		"count":   len(results),
		"results": results,
	})
}

func (h *CatalogHandler) CheckCompatibility(c *gin.Context) {
	var req CompatibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	result, err := h.catalogService.CheckCompatibility(c.Request.Context(), req.PartNumber, req.ModelNumber)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "compatibility check failed")
		}
		return
	}

	response.OK(c, result)
}

func (h *CatalogHandler) GetProduct(c *gin.Context) {
	product, err := h.catalogService.GetProduct(c.Request.Context(), c.Param("part_number"))
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, app.ErrProductNotFound):
			response.Error(c, http.StatusNotFound, response.CodeNotFound, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "get product failed")
		}
		return
	}

	response.OK(c, product)
}

func (h *CatalogHandler) GetInstallationGuide(c *gin.Context) {
	guide, err := h.catalogService.GetInstallationGuide(c.Request.Context(), c.Param("part_number"))
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, app.ErrProductNotFound), errors.Is(err, app.ErrGuideNotFound):
			response.Error(c, http.StatusNotFound, response.CodeNotFound, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "get installation guide failed")
		}
		return
	}

	response.OK(c, guide)
}
