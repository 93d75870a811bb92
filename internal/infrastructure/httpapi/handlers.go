package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/doeshing/promptcraft/internal/domain"
	"github.com/doeshing/promptcraft/internal/ports"
	"github.com/doeshing/promptcraft/internal/version"
)

type handlers struct {
	svc       PromptService
	exportDir string
	logger    ports.Logger
}

// promptRequest mirrors domain.PromptRequest. An omitted save_to_history means
// true and an omitted negative_prompt means the Wan 2.2 default list.
type promptRequest struct {
	Model          string  `json:"model"`
	TargetModel    string  `json:"target_model"`
	CreativityMode string  `json:"creativity_mode"`
	Input          string  `json:"input"`
	NegativePrompt *string `json:"negative_prompt"`
	MaxTokens      int     `json:"max_tokens"`
	UnloadModel    bool    `json:"unload_model"`
	SaveToHistory  *bool   `json:"save_to_history"`
}

func (r promptRequest) toDomain() domain.PromptRequest {
	save := true
	if r.SaveToHistory != nil {
		save = *r.SaveToHistory
	}
	negative := domain.DefaultNegativePrompt
	if r.NegativePrompt != nil {
		negative = *r.NegativePrompt
	}
	return domain.PromptRequest{
		Model:          r.Model,
		Target:         domain.ParseTargetDomain(r.TargetModel),
		Creativity:     domain.ParseCreativityMode(r.CreativityMode),
		Input:          r.Input,
		NegativePrompt: negative,
		MaxTokens:      r.MaxTokens,
		UnloadAfter:    r.UnloadModel,
		SaveToHistory:  save,
	}
}

type styleRequest struct {
	Text   string `json:"text"`
	Preset string `json:"preset"`
}

type negativeRequest struct {
	Preset     string `json:"preset"`
	Additional string `json:"additional"`
}

type combineRequest struct {
	Separator string   `json:"separator"`
	Texts     []string `json:"texts"`
}

type textResponse struct {
	Text string `json:"text"`
}

type historyListResponse struct {
	Entries []domain.HistoryEntry `json:"entries"`
	Count   int                   `json:"count"`
}

type historyLoadResponse struct {
	Entry    domain.HistoryEntry    `json:"entry"`
	Metadata domain.HistoryMetadata `json:"metadata"`
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": version.Version})
}

func (h *handlers) generatePrompt(c *gin.Context) {
	var req promptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body: "+err.Error())
		return
	}
	res, err := h.svc.GeneratePrompt(c.Request.Context(), req.toDomain())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *handlers) generateIdeas(c *gin.Context) {
	var req domain.IdeasRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body: "+err.Error())
		return
	}
	res, err := h.svc.GenerateIdeas(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *handlers) generateSequence(c *gin.Context) {
	var req domain.SequenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body: "+err.Error())
		return
	}
	res, err := h.svc.GenerateSequence(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *handlers) listModels(c *gin.Context) {
	refresh, _ := strconv.ParseBool(c.DefaultQuery("refresh", "false"))
	models := h.svc.ListModels(c.Request.Context(), refresh)
	c.JSON(http.StatusOK, gin.H{"models": models})
}

func (h *handlers) listHistory(c *gin.Context) {
	filter := domain.HistoryFilter{
		Service:    c.Query("service"),
		Model:      c.Query("model"),
		Creativity: c.Query("creativity"),
	}
	entries, err := h.svc.ListHistory(c.Query("q"), filter)
	if err != nil {
		h.fail(c, err)
		return
	}
	if entries == nil {
		entries = []domain.HistoryEntry{}
	}
	c.JSON(http.StatusOK, historyListResponse{Entries: entries, Count: len(entries)})
}

func (h *handlers) loadHistory(c *gin.Context) {
	sel := domain.HistorySelector{
		By:   domain.HistorySelectMode(strings.ToLower(c.DefaultQuery("by", string(domain.SelectLatest)))),
		Term: c.Query("term"),
	}
	switch sel.By {
	case domain.SelectLatest, domain.SelectIndex, domain.SelectSearch:
	default:
		h.badRequest(c, "by must be one of latest, index, search")
		return
	}
	if raw := c.Query("index"); raw != "" {
		index, err := strconv.Atoi(raw)
		if err != nil {
			h.badRequest(c, "index must be an integer")
			return
		}
		sel.Index = index
	}

	entry, err := h.svc.LoadHistory(c.Request.Context(), sel)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, historyLoadResponse{Entry: entry, Metadata: entry.Metadata()})
}

func (h *handlers) deleteHistory(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		h.badRequest(c, "index must be an integer")
		return
	}
	if err := h.svc.DeleteHistory(index); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) clearHistory(c *gin.Context) {
	if err := h.svc.ClearHistory(); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) exportHistory(c *gin.Context) {
	format := c.DefaultQuery("format", "json")
	path, err := h.svc.ExportHistory(format, h.exportDir)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"path": path, "format": format})
}

func (h *handlers) style(c *gin.Context) {
	var req styleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body: "+err.Error())
		return
	}
	if req.Preset == "" {
		req.Preset = "none"
	}
	text, err := h.svc.Style(req.Text, req.Preset)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, textResponse{Text: text})
}

func (h *handlers) negative(c *gin.Context) {
	var req negativeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body: "+err.Error())
		return
	}
	if req.Preset == "" {
		req.Preset = "general"
	}
	text, err := h.svc.Negative(req.Preset, req.Additional)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, textResponse{Text: text})
}

func (h *handlers) combine(c *gin.Context) {
	var req combineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body: "+err.Error())
		return
	}
	text, err := h.svc.Combine(req.Separator, req.Texts...)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, textResponse{Text: text})
}
