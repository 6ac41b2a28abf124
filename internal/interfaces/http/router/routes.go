package router

import (
	"github.com/gin-gonic/gin"
	"github.com/messmate/backend/internal/domain/identity"
	"github.com/messmate/backend/internal/interfaces/http/handler"
	"github.com/messmate/backend/internal/interfaces/http/middleware"
)

// Handlers bundles every HTTP handler of the API
type Handlers struct {
	Auth       *handler.AuthHandler
	Mess       *handler.MessHandler
	Member     *handler.MemberHandler
	Ledger     *handler.LedgerHandler
	Balance    *handler.BalanceHandler
	Settlement *handler.SettlementHandler
	Message    *handler.MessageHandler
	System     *handler.SystemHandler
}

// Guards holds route-specific middleware. Nil entries are skipped.
type Guards struct {
	// LoginRateLimit throttles credential guessing on /auth/login
	LoginRateLimit gin.HandlerFunc
}

// APIGroups returns the route groups of the versioned API. Authentication
// itself is global; these groups add the role checks.
func APIGroups(h Handlers, g Guards) []RouteRegistrar {
	superAdmin := middleware.RequireRole(identity.RoleSuperAdmin)
	manager := middleware.RequireRole(identity.RoleManager)
	anyMember := middleware.RequireRole(identity.RoleManager, identity.RoleMember)

	system := NewDomainGroup("system", "")
	system.GET("/health", h.System.Health)

	auth := NewDomainGroup("auth", "/auth")
	auth.POST("/login", withGuard(g.LoginRateLimit, h.Auth.Login)...)
	auth.POST("/refresh", h.Auth.RefreshToken)
	auth.POST("/logout", h.Auth.Logout)
	auth.GET("/me", h.Auth.Me)
	auth.POST("/password", h.Auth.ChangePassword)

	admin := NewDomainGroup("admin", "/admin").Use(superAdmin)
	admin.GET("/system/info", h.System.GetSystemInfo)
	admin.Group("messes", "/messes").
		POST("", h.Mess.Create).
		GET("", h.Mess.List).
		GET("/:id", h.Mess.GetByID).
		PUT("/:id", h.Mess.Update).
		POST("/:id/activate", h.Mess.Activate).
		POST("/:id/deactivate", h.Mess.Deactivate).
		POST("/:id/suspend", h.Mess.Suspend)
	admin.POST("/settlement/rollover", h.Settlement.RolloverAll)

	mess := NewDomainGroup("mess", "/mess").Use(middleware.RequireTenant())
	mess.Group("members", "/members").Use(manager).
		POST("", h.Member.Add).
		GET("", h.Member.List).
		GET("/:id", h.Member.GetByID).
		PUT("/:id", h.Member.Update).
		POST("/:id/activate", h.Member.Activate).
		POST("/:id/deactivate", h.Member.Deactivate).
		POST("/:id/promote", h.Member.Promote).
		POST("/:id/demote", h.Member.Demote)
	mess.Group("meals", "/meals").
		PUT("", manager, h.Ledger.RecordMeals).
		GET("", anyMember, h.Ledger.ListMeals).
		DELETE("/:id", manager, h.Ledger.DeleteMeals)
	mess.Group("bazar", "/bazar").Use(manager).
		POST("", h.Ledger.AddBazar).
		GET("", h.Ledger.ListBazar).
		DELETE("/:id", h.Ledger.DeleteBazar)
	mess.Group("deposits", "/deposits").Use(manager).
		POST("", h.Ledger.AddDeposit).
		GET("", h.Ledger.ListDeposits).
		DELETE("/:id", h.Ledger.DeleteDeposit)
	mess.Group("additional-costs", "/additional-costs").Use(manager).
		POST("", h.Ledger.AddAdditionalCost).
		GET("", h.Ledger.ListAdditionalCosts).
		DELETE("/:id", h.Ledger.DeleteAdditionalCost)
	mess.Group("balances", "/balances").
		GET("", manager, h.Balance.Statement).
		GET("/me", anyMember, h.Balance.Mine)
	mess.POST("/settlement/rollover", manager, h.Settlement.RolloverMine)
	mess.Group("archives", "/archives").
		GET("", manager, h.Settlement.ListArchives).
		GET("/members/:id", anyMember, h.Settlement.MemberHistory).
		GET("/:period", manager, h.Settlement.GetArchive).
		GET("/:period/export", manager, h.Settlement.ExportLink)

	messages := NewDomainGroup("messages", "/messages")
	messages.POST("", h.Message.Send)
	messages.GET("/inbox", h.Message.Inbox)
	messages.POST("/:id/read", h.Message.MarkRead)

	return []RouteRegistrar{system, auth, admin, mess, messages}
}

func withGuard(guard gin.HandlerFunc, h gin.HandlerFunc) []gin.HandlerFunc {
	if guard == nil {
		return []gin.HandlerFunc{h}
	}
	return []gin.HandlerFunc{guard, h}
}
