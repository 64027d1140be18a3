package handlers

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/devconnect/backend/internal/middleware"
	"github.com/devconnect/backend/internal/notifications"
	"github.com/devconnect/backend/internal/repositories"
	"github.com/devconnect/backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// getUserIDFromContext returns the id JWTAuthMiddleware stored, or 0.
func getUserIDFromContext(c echo.Context) uint {
	id, _ := c.Get(middleware.UserIDKey).(uint)
	return id
}

func requireUser(c echo.Context) (uint, error) {
	id := getUserIDFromContext(c)
	if id == 0 {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	return id, nil
}

func parseIDParam(c echo.Context, name, label string) (uint, error) {
	return parseIDParamValue(c.Param(name), label)
}

func parseIDParamValue(raw, label string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid "+label+" ID")
	}
	return uint(id), nil
}

func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	return c.Validate(req)
}

// paging reads ?page= and ?limit= with a default and upper bound on limit.
func paging(c echo.Context, defaultLimit, maxLimit int) (page, limit int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	limit, _ = strconv.Atoi(c.QueryParam("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > maxLimit {
		limit = defaultLimit
	}
	return page, limit
}

func pageMeta(page, limit int, total int64) echo.Map {
	totalPages := int(math.Ceil(float64(total) / float64(limit)))
	return echo.Map{
		"currentPage":     page,
		"totalPages":      totalPages,
		"totalItems":      total,
		"itemsPerPage":    limit,
		"hasNextPage":     page < totalPages,
		"hasPreviousPage": page > 1,
	}
}

func success(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, echo.Map{"success": true, "data": data})
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound) ||
		errors.Is(err, repositories.ErrNotFound) ||
		errors.Is(err, repositories.ErrPostNotFound) ||
		errors.Is(err, repositories.ErrInvalidPostID)
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}

// makeSlug derives a URL slug from title with a short random suffix so equal
// titles never collide.
func makeSlug(title, fallback string) string {
	base := slug.Make(title)
	if base == "" {
		base = fallback
	}
	if len(base) > 200 {
		base = strings.Trim(base[:200], "-")
	}
	return base + "-" + strings.SplitN(uuid.NewString(), "-", 2)[0]
}

// excerptText shortens plain text to n runes on a single line.
func excerptText(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return strings.TrimSpace(string(runes[:n])) + "..."
}

// loadActor resolves the caller for notification display text. A lookup
// failure still yields an actor with the right id.
func loadActor(users repositories.UserRepository, id uint) notifications.Actor {
	actor := notifications.Actor{ID: id}
	if u, err := users.GetUserByID(id); err == nil {
		actor.Username = u.Username
	}
	return actor
}

// Reputation an author earns when others engage with their content.
const (
	reputationPostLike       = 5
	reputationPostComment    = 2
	reputationSnippetLike    = 3
	reputationSnippetComment = 1
)

// awardReputation adds delta to the author's reputation unless the actor is the
// author. A failure is logged and never fails the request that earned it.
func awardReputation(users repositories.UserRepository, authorID, actorID uint, delta int) {
	if authorID == actorID {
		return
	}
	if err := users.IncrementCounter(authorID, "reputation", delta); err != nil {
		logger.Log.WithError(err).WithField("user_id", authorID).Warn("reputation update failed")
	}
}

// normalizeTags lowercases and trims tags, dropping blanks and duplicates.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
