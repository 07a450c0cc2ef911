package api

import (
	"context"
	"net/http"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"omniasr/internal/utils"
)

// langCodePattern matches codes such as eng_Latn or cmn_Hans.
var langCodePattern = regexp.MustCompile(`^[a-z]{3}_[A-Z][a-z]{3}$`)

var registerOnce sync.Once

func registerValidators() {
	registerOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			_ = v.RegisterValidation("langcode", func(fl validator.FieldLevel) bool {
				return langCodePattern.MatchString(fl.Field().String())
			})
		}
	})
}

type languagesQuery struct {
	Search string `form:"search"`
	Limit  int    `form:"limit,default=100" binding:"min=1,max=2000"`
	Offset int    `form:"offset,default=0" binding:"min=0"`
}

// listLanguages handles GET /languages?search=&limit=&offset=
func (h *Handler) listLanguages(c *gin.Context) {
	var q languagesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		utils.Error(c, http.StatusUnprocessableEntity, kindValidation, err.Error())
		return
	}

	all, err := h.supportedLanguages(c.Request.Context())
	if err != nil {
		h.log.Errorw("failed to fetch languages", "request_id", utils.RequestID(c), "error", err)
		utils.Error(c, http.StatusInternalServerError, kindHTTP, "Failed to fetch supported languages")
		return
	}

	matched := filterLanguages(all, q.Search)
	page := paginate(matched, q.Offset, q.Limit)
	utils.Success(c, gin.H{
		"total":     len(matched),
		"count":     len(page),
		"languages": page,
	})
}

// supportedLanguages serves the engine's language list from the directory
// cache, collapsing concurrent refreshes into one engine call.
func (h *Handler) supportedLanguages(ctx context.Context) ([]string, error) {
	if langs, ok := h.languages.Get(); ok {
		return langs, nil
	}
	v, err, _ := h.group.Do("languages", func() (any, error) {
		langs, err := h.engine.Languages(ctx)
		if err != nil {
			return nil, err
		}
		h.languages.Set(langs)
		return langs, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]string), nil
}

func (h *Handler) languageSupported(ctx context.Context, code string) (bool, error) {
	langs, err := h.supportedLanguages(ctx)
	if err != nil {
		return false, err
	}
	return slices.Contains(langs, code), nil
}

// filterLanguages keeps codes containing search, ignoring case.
func filterLanguages(langs []string, search string) []string {
	if search == "" {
		return langs
	}
	needle := strings.ToLower(search)
	out := make([]string, 0, len(langs))
	for _, l := range langs {
		if strings.Contains(strings.ToLower(l), needle) {
			out = append(out, l)
		}
	}
	return out
}

func paginate(langs []string, offset, limit int) []string {
	if offset >= len(langs) {
		return []string{}
	}
	end := min(offset+limit, len(langs))
	return langs[offset:end]
}
