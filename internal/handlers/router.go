package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberws "github.com/gofiber/websocket/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lizzietrust/chat-backend/internal/metrics"
	"github.com/lizzietrust/chat-backend/internal/middleware"
	"github.com/lizzietrust/chat-backend/internal/token"
	"github.com/lizzietrust/chat-backend/internal/ws"
)

// Router wires every REST route, the websocket upgrade and the metrics
// endpoint onto a fiber app.
type Router struct {
	Auth     *AuthHandler
	Users    *UserHandler
	Chats    *ChatHandler
	Messages *MessageHandler
	Channels *ChannelHandler
	WS       *ws.Handler

	Tokens     *token.Manager
	CookieName string
	CORSOrigin string
	Limiter    *middleware.RateLimiter
}

func (r *Router) Mount(app *fiber.App) {
	app.Use(metrics.HTTPMiddleware())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     r.CORSOrigin,
		AllowCredentials: true,
	}))

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	auth := middleware.Auth(r.Tokens, r.CookieName)

	api := app.Group("/api")
	if r.Limiter != nil {
		api.Use(r.Limiter.ByIP())
	}

	a := api.Group("/auth")
	a.Post("/register", r.Auth.Register)
	a.Post("/login", r.Auth.Login)
	a.Post("/logout", r.Auth.Logout)
	a.Get("/user-info", auth, r.Auth.UserInfo)
	a.Put("/update-profile", auth, r.Auth.UpdateProfile)

	u := api.Group("/users", auth)
	u.Get("/", r.Users.List)
	u.Get("/search", r.Users.Search)

	ch := api.Group("/chats", auth)
	ch.Post("/direct", r.Chats.CreateDirect)
	ch.Get("/", r.Chats.List)
	ch.Get("/:chatID/messages", r.Chats.History)
	ch.Get("/:chatID/recent", r.Chats.Recent)
	ch.Put("/:chatID/read", r.Chats.MarkRead)
	ch.Delete("/:chatID/messages", r.Chats.Clear)

	m := api.Group("/messages", auth)
	m.Post("/", r.Messages.Send)
	m.Put("/:messageID/delivered", r.Messages.MarkDelivered)
	m.Put("/:messageID/read", r.Messages.MarkRead)
	m.Put("/:messageID", r.Messages.Edit)
	m.Delete("/:messageID", r.Messages.Delete)

	cn := api.Group("/channels", auth)
	cn.Post("/", r.Channels.Create)
	cn.Put("/:channelID", r.Channels.Update)
	cn.Post("/:channelID/members", r.Channels.AddMember)
	cn.Delete("/:channelID/members/:userID", r.Channels.RemoveMember)
	cn.Put("/:channelID/admins/:userID", r.Channels.SetAdmin)

	// websocket upgrade; auth happens inside Serve from the cookie or
	// ?token= query param
	app.Use("/ws", func(c *fiber.Ctx) error {
		if fiberws.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", fiberws.New(r.WS.Serve))
}
