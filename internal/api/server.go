// Package api serves the community over HTTP for visualizers.
// GET endpoints are public and read-only.
// POST endpoints require a bearer token (admin control plane).
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/talgya/kindred/internal/community"
	"github.com/talgya/kindred/internal/engine"
	"github.com/talgya/kindred/internal/persistence"
	"github.com/talgya/kindred/internal/relations"
)

const (
	defaultLimit = 100
	maxLimit     = 1000
	maxSpeed     = 1000
)

// Server serves community state over HTTP.
type Server struct {
	Community *community.Community
	Sim       *engine.Simulation
	Eng       *engine.Engine  // Optional; status reports speed only when set
	DB        *persistence.DB // Optional; history and events fall back to memory
	Port      int
	AdminKey  string       // Bearer token for POST endpoints. Empty = POST disabled.
	Limiter   *RateLimiter // Optional

	srv *http.Server
}

// Router builds the gin engine with every route.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())
	if s.Limiter != nil {
		router.Use(s.Limiter.Middleware())
	}

	v1 := router.Group("/api/v1")
	{
		v1.GET("/status", s.handleStatus)
		v1.GET("/persons", s.handlePersons)
		v1.GET("/persons/:id", s.handlePerson)
		v1.GET("/persons/:id/relations", s.handleRelations)
		v1.GET("/tribes", s.handleTribes)
		v1.GET("/tribes/:leader", s.handleTribe)
		v1.GET("/families", s.handleFamilies)
		v1.GET("/history", s.handleHistory)
		v1.GET("/events", s.handleEvents)

		v1.POST("/speed", s.adminOnly(), s.handleSpeed)
	}
	return router
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.Port)
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP API failed", "error", err)
		}
	}()
}

// Shutdown stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Debug("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

// adminOnly rejects requests without the admin bearer token.
func (s *Server) adminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.AdminKey == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin endpoints disabled"})
			return
		}
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") != s.AdminKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

func (s *Server) handleStatus(c *gin.Context) {
	stats, _ := s.Sim.LatestStats()
	status := gin.H{
		"name":       "kindred",
		"year":       stats.Year,
		"population": stats.Population,
		"tribes":     stats.Tribes,
		"families":   stats.Families,
		"births":     stats.Births,
		"deaths":     stats.Deaths,
		"avg_age":    stats.AvgAge,
		"hardship":   stats.Hardship,
	}
	if s.Eng != nil {
		status["speed"] = s.Eng.Speed()
		status["running"] = s.Eng.Running()
	}
	c.JSON(http.StatusOK, status)
}

type personSummary struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Age      int       `json:"age"`
	Gender   string    `json:"gender"`
	Job      string    `json:"job"`
	Born     int       `json:"born"`
	InFamily bool      `json:"in_family"`
	Leader   *string   `json:"leader,omitempty"` // Name of the tribe leader followed
	Leads    bool      `json:"leads"`
}

func (s *Server) handlePersons(c *gin.Context) {
	limit := queryLimit(c)
	gender := strings.ToLower(c.Query("gender"))

	out := []personSummary{}
	s.Community.View(func() {
		for _, p := range s.Community.Registry.All() {
			if gender != "" && p.Gender.String() != gender {
				continue
			}
			sum := personSummary{
				ID:       p.ID,
				Name:     p.Name,
				Age:      p.Age,
				Gender:   p.Gender.String(),
				Job:      p.Job,
				Born:     p.Born,
				InFamily: s.Community.Family.IsInFamily(p),
				Leads:    s.Community.Graph.HasKind(p.ID, relations.Leader),
			}
			if id, ok := s.Community.Graph.LeaderOf(p.ID); ok {
				if leader, ok := s.Community.Registry.Get(id); ok {
					name := leader.Name
					sum.Leader = &name
				}
			}
			out = append(out, sum)
			if len(out) >= limit {
				break
			}
		}
	})
	c.JSON(http.StatusOK, gin.H{"count": len(out), "persons": out})
}

type relationView struct {
	Other     uuid.UUID `json:"other"`
	OtherName string    `json:"other_name"`
	Kind      string    `json:"kind"`
	Outgoing  bool      `json:"outgoing"`
}

func (s *Server) relationViews(id uuid.UUID) []relationView {
	rels := s.Community.Graph.RelationsOf(id)
	out := make([]relationView, 0, len(rels))
	for _, r := range rels {
		v := relationView{Other: r.Other, Kind: r.Kind.String(), Outgoing: r.Outgoing}
		if other, ok := s.Community.Registry.Get(r.Other); ok {
			v.OtherName = other.Name
		}
		out = append(out, v)
	}
	return out
}

func (s *Server) handlePerson(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var (
		found bool
		body  gin.H
	)
	s.Community.View(func() {
		p, exists := s.Community.Registry.Get(id)
		if !exists {
			return
		}
		found = true
		body = gin.H{
			"person":     *p,
			"relations":  s.relationViews(id),
			"in_family":  s.Community.Family.IsInFamily(p),
			"leadership": p.Traits.LeadershipScore(),
		}
	})
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "person not found"})
		return
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) handleRelations(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var (
		found bool
		rels  []relationView
	)
	s.Community.View(func() {
		if _, found = s.Community.Registry.Get(id); found {
			rels = s.relationViews(id)
		}
	})
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "person not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(rels), "relations": rels})
}

func (s *Server) handleTribes(c *gin.Context) {
	views := []community.TribeView{}
	s.Community.View(func() {
		for _, info := range s.Community.Tribes.AllTribes() {
			views = append(views, community.NewTribeView(info))
		}
	})
	c.JSON(http.StatusOK, gin.H{"count": len(views), "tribes": views})
}

func (s *Server) handleTribe(c *gin.Context) {
	id, ok := pathID(c, "leader")
	if !ok {
		return
	}
	var view *community.TribeView
	s.Community.View(func() {
		leader, exists := s.Community.Registry.Get(id)
		if !exists {
			return
		}
		if info := s.Community.Tribes.TribeInfo(leader); info != nil {
			v := community.NewTribeView(*info)
			view = &v
		}
	})
	if view == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no tribe led by this person"})
		return
	}
	c.JSON(http.StatusOK, view)
}

type familyView struct {
	Father     uuid.UUID   `json:"father"`
	FatherName string      `json:"father_name"`
	Mother     uuid.UUID   `json:"mother"`
	MotherName string      `json:"mother_name"`
	Children   []uuid.UUID `json:"children"`
}

func (s *Server) handleFamilies(c *gin.Context) {
	out := []familyView{}
	s.Community.View(func() {
		fam := s.Community.Family
		for _, couple := range fam.Couples() {
			v := familyView{
				Father:     couple.Father.ID,
				FatherName: couple.Father.Name,
				Mother:     couple.Mother.ID,
				MotherName: couple.Mother.Name,
				Children:   []uuid.UUID{},
			}
			for _, child := range fam.ChildrenOf(couple.Father) {
				v.Children = append(v.Children, child.ID)
			}
			out = append(out, v)
		}
	})
	c.JSON(http.StatusOK, gin.H{"count": len(out), "families": out})
}

func (s *Server) handleHistory(c *gin.Context) {
	limit := queryLimit(c)
	if s.DB != nil {
		rows, err := s.DB.History(limit)
		if err != nil {
			slog.Error("history query failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "history unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"count": len(rows), "history": rows})
		return
	}

	_, history := s.Sim.LatestStats()
	if len(history) > limit {
		history = history[len(history)-limit:]
	}
	c.JSON(http.StatusOK, gin.H{"count": len(history), "history": history})
}

func (s *Server) handleEvents(c *gin.Context) {
	limit := queryLimit(c)
	category := c.Query("category")

	events := []engine.Event{}
	if s.DB != nil {
		rows, err := s.DB.RecentEvents(limit)
		if err != nil {
			slog.Error("events query failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "events unavailable"})
			return
		}
		events = append(events, rows...)
	} else {
		recent := s.Sim.RecentEvents(limit)
		// Newest first, as from the database.
		for i := len(recent) - 1; i >= 0; i-- {
			events = append(events, recent[i])
		}
	}

	if category != "" {
		filtered := events[:0]
		for _, e := range events {
			if e.Category == category {
				filtered = append(filtered, e)
			}
		}
		events = filtered
	}
	c.JSON(http.StatusOK, gin.H{"count": len(events), "events": events})
}

func (s *Server) handleSpeed(c *gin.Context) {
	if s.Eng == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "engine not running"})
		return
	}
	var req struct {
		Speed *float64 `json:"speed" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if *req.Speed < 0 || *req.Speed > maxSpeed {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("speed must be 0-%d", maxSpeed)})
		return
	}
	s.Eng.SetSpeed(*req.Speed)
	slog.Info("speed changed", "speed", *req.Speed)
	c.JSON(http.StatusOK, gin.H{"speed": s.Eng.Speed()})
}

func pathID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return uuid.UUID{}, false
	}
	return id, true
}

func queryLimit(c *gin.Context) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if err != nil || limit <= 0 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}
