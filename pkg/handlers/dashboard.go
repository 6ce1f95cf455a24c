package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"iris-site/pkg/backend"
	"iris-site/pkg/models"
	"iris-site/pkg/session"
)

func (s *Server) Dashboard(c *gin.Context) {
	c.Redirect(http.StatusFound, dashboardFor(currentUser(c)))
}

func (s *Server) MemberDashboard(c *gin.Context) {
	user := currentUser(c)
	token := session.From(c).Token()
	data := gin.H{"Title": "Dashboard", "Admin": false, "Users": []models.User(nil)}

	var (
		projects []models.Project
		txs      []models.CoinTransaction
		msgs     []models.Message
		lb       *models.Leaderboard
	)
	err := s.fetchAll(c.Request.Context(),
		func(ctx context.Context) (err error) {
			projects, err = s.Backend.UserProjects(ctx, token, user.ID)
			return
		},
		func(ctx context.Context) (err error) {
			txs, err = s.Backend.CoinTransactions(ctx, token, user.ID)
			return
		},
		func(ctx context.Context) (err error) { msgs, err = s.Backend.UserMessages(ctx, token, user.ID); return },
		func(ctx context.Context) (err error) { lb, err = s.Backend.Leaderboard(ctx, token); return },
	)
	if err != nil {
		s.Log.Warn("member dashboard", zap.String("user", user.Username), zap.Error(err))
		data["Error"] = "Some dashboard data could not be loaded."
	}
	data["Projects"], data["Transactions"], data["Messages"], data["Leaderboard"] = projects, txs, msgs, lb
	s.page(c, http.StatusOK, "dashboard.html", data)
}

func (s *Server) AdminDashboard(c *gin.Context) {
	token := session.From(c).Token()
	data := gin.H{"Title": "Admin dashboard", "Admin": true}

	var (
		users    []models.User
		projects []models.Project
		msgs     []models.Message
		lb       *models.Leaderboard
	)
	err := s.fetchAll(c.Request.Context(),
		func(ctx context.Context) (err error) { users, err = s.Backend.Users(ctx, token); return },
		func(ctx context.Context) (err error) { projects, err = s.Backend.Projects(ctx, token); return },
		func(ctx context.Context) (err error) { msgs, err = s.Backend.AllMessages(ctx, token); return },
		func(ctx context.Context) (err error) { lb, err = s.Backend.Leaderboard(ctx, token); return },
	)
	if err != nil {
		s.Log.Warn("admin dashboard", zap.Error(err))
		data["Error"] = "Some dashboard data could not be loaded."
	}
	data["Users"], data["Projects"], data["Messages"], data["Leaderboard"] = users, projects, msgs, lb
	s.page(c, http.StatusOK, "dashboard.html", data)
}

// fetchAll runs the backend calls concurrently. Every call runs to completion
// so partial data can still be shown; the first error is returned.
func (s *Server) fetchAll(ctx context.Context, calls ...func(context.Context) error) error {
	var g errgroup.Group
	for _, call := range calls {
		g.Go(func() error { return call(ctx) })
	}
	return g.Wait()
}

func (s *Server) dashboardAPI(g *gin.RouterGroup) {
	g.GET("/projects", s.myProjects)
	g.GET("/coins", s.myCoins)
	g.GET("/messages", s.myMessages)
	g.GET("/leaderboard", s.leaderboard)

	admin := g.Group("", s.RequireAdmin)
	admin.GET("/users", s.listUsers)
	admin.POST("/users", s.createUser)
	admin.DELETE("/users", s.deleteUser)
	admin.POST("/users/role", s.updateRole)
	admin.GET("/members", s.listMembers)
	admin.GET("/projects/all", s.allProjects)
	admin.POST("/projects", s.createProject)
	admin.DELETE("/projects", s.deleteProject)
	admin.POST("/projects/assign", s.assignMember)
	admin.POST("/projects/remove", s.removeMember)
	admin.POST("/coins", s.manageCoins)
	admin.POST("/leaderboard/save", s.saveLeaderboard)
	admin.GET("/messages/all", s.allMessages)
	admin.POST("/messages", s.sendMessage)
}

// backendError forwards a backend failure to the client.
func (s *Server) backendError(c *gin.Context, err error) {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		c.JSON(apiErr.Status, gin.H{"error": apiErr.Message})
		return
	}
	s.Log.Error("backend request", zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusBadGateway, gin.H{"error": "Backend unavailable"})
}

func (s *Server) respond(c *gin.Context, v any, err error) {
	if err != nil {
		s.backendError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (s *Server) done(c *gin.Context, err error) {
	s.respond(c, gin.H{"status": "ok"}, err)
}

func bind(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return false
	}
	return true
}

func (s *Server) myProjects(c *gin.Context) {
	v, err := s.Backend.UserProjects(c.Request.Context(), session.From(c).Token(), currentUser(c).ID)
	s.respond(c, v, err)
}

func (s *Server) myCoins(c *gin.Context) {
	v, err := s.Backend.CoinTransactions(c.Request.Context(), session.From(c).Token(), currentUser(c).ID)
	s.respond(c, v, err)
}

func (s *Server) myMessages(c *gin.Context) {
	v, err := s.Backend.UserMessages(c.Request.Context(), session.From(c).Token(), currentUser(c).ID)
	s.respond(c, v, err)
}

func (s *Server) leaderboard(c *gin.Context) {
	v, err := s.Backend.Leaderboard(c.Request.Context(), session.From(c).Token())
	s.respond(c, v, err)
}

func (s *Server) listUsers(c *gin.Context) {
	v, err := s.Backend.Users(c.Request.Context(), session.From(c).Token())
	s.respond(c, v, err)
}

func (s *Server) listMembers(c *gin.Context) {
	v, err := s.Backend.Members(c.Request.Context(), session.From(c).Token())
	s.respond(c, v, err)
}

func (s *Server) createUser(c *gin.Context) {
	var req backend.NewUser
	if !bind(c, &req) {
		return
	}
	if req.Role == "" {
		req.Role = models.RoleMember
	}
	if !req.Role.Valid() || req.Username == "" || req.Email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username, email and a valid role are required"})
		return
	}
	s.done(c, s.Backend.CreateUser(c.Request.Context(), session.From(c).Token(), req))
}

type userIDRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

func (s *Server) deleteUser(c *gin.Context) {
	var req userIDRequest
	if !bind(c, &req) {
		return
	}
	s.done(c, s.Backend.DeleteUser(c.Request.Context(), session.From(c).Token(), req.UserID))
}

func (s *Server) updateRole(c *gin.Context) {
	var req struct {
		UserID string      `json:"user_id" binding:"required"`
		Role   models.Role `json:"role"`
	}
	if !bind(c, &req) {
		return
	}
	if !req.Role.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "role must be Admin or Member"})
		return
	}
	s.done(c, s.Backend.UpdateUserRole(c.Request.Context(), session.From(c).Token(), req.UserID, req.Role))
}

func (s *Server) allProjects(c *gin.Context) {
	v, err := s.Backend.Projects(c.Request.Context(), session.From(c).Token())
	s.respond(c, v, err)
}

func (s *Server) createProject(c *gin.Context) {
	var req backend.NewProject
	if !bind(c, &req) {
		return
	}
	if req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	if req.CreatedBy == "" {
		req.CreatedBy = currentUser(c).ID
	}
	s.done(c, s.Backend.CreateProject(c.Request.Context(), session.From(c).Token(), req))
}

func (s *Server) deleteProject(c *gin.Context) {
	var req struct {
		ProjectID string `json:"project_id" binding:"required"`
	}
	if !bind(c, &req) {
		return
	}
	s.done(c, s.Backend.DeleteProject(c.Request.Context(), session.From(c).Token(), req.ProjectID))
}

type projectMemberRequest struct {
	ProjectID string `json:"project_id" binding:"required"`
	MemberID  string `json:"member_id" binding:"required"`
}

func (s *Server) assignMember(c *gin.Context) {
	var req projectMemberRequest
	if !bind(c, &req) {
		return
	}
	s.done(c, s.Backend.AssignMember(c.Request.Context(), session.From(c).Token(), req.ProjectID, req.MemberID))
}

func (s *Server) removeMember(c *gin.Context) {
	var req projectMemberRequest
	if !bind(c, &req) {
		return
	}
	s.done(c, s.Backend.RemoveMember(c.Request.Context(), session.From(c).Token(), req.ProjectID, req.MemberID))
}

func (s *Server) manageCoins(c *gin.Context) {
	var req struct {
		UserID string `json:"user_id" binding:"required"`
		Amount int    `json:"amount"`
		Reason string `json:"reason"`
	}
	if !bind(c, &req) {
		return
	}
	if req.Amount == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must not be zero"})
		return
	}
	tx := models.CoinTransaction{
		UserID:  req.UserID,
		Amount:  req.Amount,
		AdminID: currentUser(c).ID,
		Reason:  req.Reason,
	}
	s.done(c, s.Backend.ManageCoins(c.Request.Context(), session.From(c).Token(), tx))
}

func (s *Server) saveLeaderboard(c *gin.Context) {
	s.done(c, s.Backend.SaveLeaderboard(c.Request.Context(), session.From(c).Token()))
}

func (s *Server) allMessages(c *gin.Context) {
	v, err := s.Backend.AllMessages(c.Request.Context(), session.From(c).Token())
	s.respond(c, v, err)
}

func (s *Server) sendMessage(c *gin.Context) {
	var req backend.OutgoingMessage
	if !bind(c, &req) {
		return
	}
	switch req.Type {
	case backend.MessageIndividual, backend.MessageProjectTeam, backend.MessageBroadcast:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown message_type"})
		return
	}
	if req.Subject == "" || req.Content == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "subject and content are required"})
		return
	}
	s.done(c, s.Backend.SendMessage(c.Request.Context(), session.From(c).Token(), req))
}
