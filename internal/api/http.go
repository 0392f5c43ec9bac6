// Package api exposes the REST and websocket surface. Read routes are
// public; admin routes go through the injected protect middleware so a
// deployment can plug in whatever auth it runs behind.
package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/virtbet/vleague/internal/engine"
	wshub "github.com/virtbet/vleague/internal/hub"
	"github.com/virtbet/vleague/internal/schedule"
	"github.com/virtbet/vleague/internal/sim"
	"github.com/virtbet/vleague/internal/store"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// stateResp is the public view of the phase machine.
type stateResp struct {
	SeasonIdx  int       `json:"fixture_set_idx"`
	Week       int       `json:"current_week"`
	Phase      string    `json:"match_state"`
	Countdown  int       `json:"countdown"`
	Minute     int       `json:"minute"`
	ServerTime time.Time `json:"server_time"`
}

type overrideReq struct {
	HomeGoals *int   `json:"home_goals"`
	AwayGoals *int   `json:"away_goals"`
	Winner    string `json:"winner"`
	GoalTimes []int  `json:"goal_times"`
}

// RegisterRoutes mounts all endpoints on the router. ctx bounds the
// lifetime of websocket pumps; the request context dies with the handler,
// which is too early for a hijacked connection.
func RegisterRoutes(ctx context.Context, r *gin.Engine, eng *engine.Engine, repo *store.Repo, sched *schedule.Clock, h *wshub.Hub, protect gin.HandlerFunc) {
	api := r.Group("/api")
	{
		api.GET("/state", func(c *gin.Context) {
			s := eng.Snapshot()
			c.JSON(http.StatusOK, stateResp{
				SeasonIdx:  s.SeasonIdx,
				Week:       s.Week,
				Phase:      s.Phase,
				Countdown:  s.Countdown,
				Minute:     s.Minute,
				ServerTime: sched.Display(sched.Now()),
			})
		})

		// Clients calibrate their local offset against this.
		api.GET("/time", func(c *gin.Context) {
			t, err := repo.ServerTime(c.Request.Context())
			if err != nil {
				t = sched.Now()
			}
			c.JSON(http.StatusOK, gin.H{"server_time": sched.Display(t)})
		})

		api.GET("/fixtures", func(c *gin.Context) {
			week := eng.Snapshot().Week
			if q := c.Query("week"); q != "" {
				n, err := strconv.Atoi(q)
				if err != nil {
					c.JSON(http.StatusBadRequest, gin.H{"error": "bad week"})
					return
				}
				week = n
			}
			fx, err := eng.WeekFixtures(week)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, gin.H{"week": week, "fixtures": fx})
		})

		api.GET("/matches/current", func(c *gin.Context) {
			list, err := eng.CurrentMatches(c.Request.Context())
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, list)
		})

		api.GET("/match/:id", func(c *gin.Context) {
			res, err := eng.Lookup(c.Request.Context(), c.Param("id"))
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, res)
		})

		api.GET("/results", func(c *gin.Context) {
			ids := strings.Split(c.Query("ids"), ",")
			keep := ids[:0]
			for _, id := range ids {
				if id = strings.TrimSpace(id); id != "" {
					keep = append(keep, id)
				}
			}
			rows, err := repo.GetResults(c.Request.Context(), keep)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, rows)
		})

		api.PUT("/admin/overrides/:id", attachProtect(protect, func(c *gin.Context) {
			var req overrideReq
			if err := c.BindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "bad json"})
				return
			}
			if req.HomeGoals == nil || req.AwayGoals == nil || *req.HomeGoals < 0 || *req.AwayGoals < 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "home_goals and away_goals must be non-negative"})
				return
			}
			if req.Winner != "" && req.Winner != sim.SideHome && req.Winner != sim.SideAway && req.Winner != sim.Draw {
				c.JSON(http.StatusBadRequest, gin.H{"error": "winner must be home, away or draw"})
				return
			}
			if len(req.GoalTimes) > 0 && len(req.GoalTimes) != *req.HomeGoals+*req.AwayGoals {
				c.JSON(http.StatusBadRequest, gin.H{"error": "goal_times must list one entry per goal"})
				return
			}
			for _, gt := range req.GoalTimes {
				if gt < 0 || gt > sim.ReferenceMinutes {
					c.JSON(http.StatusBadRequest, gin.H{"error": "goal_times must be within 0-90"})
					return
				}
			}

			winner := req.Winner
			if winner == "" {
				switch {
				case *req.HomeGoals > *req.AwayGoals:
					winner = sim.SideHome
				case *req.AwayGoals > *req.HomeGoals:
					winner = sim.SideAway
				default:
					winner = sim.Draw
				}
			}
			row := store.MatchResult{
				MatchID:   c.Param("id"),
				HomeGoals: *req.HomeGoals,
				AwayGoals: *req.AwayGoals,
				Result:    strconv.Itoa(*req.HomeGoals) + "-" + strconv.Itoa(*req.AwayGoals),
				Winner:    winner,
				IsFinal:   "yes",
				GoalTimes: joinTimes(req.GoalTimes),
				UpdatedAt: sched.Now(),
			}
			if err := repo.UpsertResult(c.Request.Context(), row); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, row)
		}))

		api.DELETE("/admin/overrides/:id", attachProtect(protect, func(c *gin.Context) {
			if err := repo.DeleteResult(c.Request.Context(), c.Param("id")); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			c.Status(http.StatusNoContent)
		}))

		api.POST("/admin/rollover", attachProtect(protect, func(c *gin.Context) {
			s, err := eng.ForceRollover(c.Request.Context())
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, gin.H{"fixture_set_idx": s.SeasonIdx, "current_week": s.Week})
		}))
	}

	r.GET("/ws", func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		client := wshub.NewClient(uuid.NewString(), conn, h)
		h.Register(client)
		go client.WritePump(ctx)
		go client.ReadPump(ctx)
	})

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "clients": h.ClientCount()})
	})
}

func joinTimes(ts []int) string {
	if len(ts) == 0 {
		return ""
	}
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = strconv.Itoa(t)
	}
	return strings.Join(parts, ",")
}

// attachProtect conditionally wraps a handler with the protect middleware.
// Read routes stay public.
func attachProtect(protect gin.HandlerFunc, h gin.HandlerFunc) gin.HandlerFunc {
	if protect == nil {
		return h
	}
	return func(c *gin.Context) {
		protect(c)
		if c.IsAborted() {
			return
		}
		h(c)
	}
}
