package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"go-lending-ws/internal/handler"
	"go-lending-ws/internal/middleware"
	"go-lending-ws/internal/model"
	"go-lending-ws/internal/repository"
	"go-lending-ws/internal/service"
	"go-lending-ws/internal/ws"
	"go-lending-ws/pkg/database"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

func main() {
	// 1. Load env
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	// 2. Setup database
	db := database.ConnectDB()
	db.AutoMigrate(&model.Item{}, &model.Borrower{}, &model.Loan{}, &model.LoanLine{}, &model.User{}, &model.Setting{})

	// 3. Seed settings and the admin account
	seedSettingsAndAdmin(db)

	// 4. Setup websocket hub
	wsHub := ws.NewHub()
	go wsHub.Run()

	// 5. Dependency injection (wiring layers)
	itemRepo := repository.NewItemRepo(db)
	borrowerRepo := repository.NewBorrowerRepo(db)
	loanRepo := repository.NewLoanRepo(db)
	userRepo := repository.NewUserRepo(db)
	settingRepo := repository.NewSettingRepo(db)

	ledgerService := service.NewLedgerService(itemRepo, borrowerRepo, loanRepo, settingRepo, db, wsHub)
	catalogService := service.NewCatalogService(itemRepo, borrowerRepo, loanRepo, db, wsHub)
	dashService := service.NewDashboardService(itemRepo, borrowerRepo, loanRepo)
	authService := service.NewAuthService(userRepo)

	loanHandler := handler.NewLoanHandler(ledgerService)
	itemHandler := handler.NewItemHandler(catalogService)
	borrowerHandler := handler.NewBorrowerHandler(catalogService)
	dashHandler := handler.NewDashboardHandler(dashService)
	authHandler := handler.NewAuthHandler(authService)
	settingHandler := handler.NewSettingHandler(settingRepo)

	// 6. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: "Pelacak Peminjaman Aset v1.0",
	})

	app.Use(logger.New())  // Request logging
	app.Use(recover.New()) // Panic recovery
	app.Use(cors.New())    // CORS

	// 7. Routes
	api := app.Group("/api/v1")

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/login", authHandler.Login)
	auth.Post("/reset-password", authHandler.ResetPassword)

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", middleware.RequireAuth(userRepo))

	// Dashboard
	protected.Get("/dashboard/stats", dashHandler.GetStats)
	protected.Get("/dashboard/loan-movement", dashHandler.GetLoanMovement)

	// Items (barang)
	protected.Get("/items", itemHandler.GetItems)
	protected.Get("/items/:id", itemHandler.GetItem)
	protected.Post("/items", middleware.RequireRole(model.RoleAdmin), itemHandler.CreateItem)
	protected.Put("/items/:id", middleware.RequireRole(model.RoleAdmin), itemHandler.UpdateItem)
	protected.Delete("/items/:id", middleware.RequireRole(model.RoleAdmin), itemHandler.DeleteItem)

	// Borrowers (peminjam)
	protected.Get("/borrowers", borrowerHandler.GetBorrowers)
	protected.Get("/borrowers/:id", borrowerHandler.GetBorrower)
	protected.Post("/borrowers", middleware.RequireRole(model.RoleAdmin), borrowerHandler.CreateBorrower)
	protected.Put("/borrowers/:id", middleware.RequireRole(model.RoleAdmin), borrowerHandler.UpdateBorrower)
	protected.Delete("/borrowers/:id", middleware.RequireRole(model.RoleAdmin), borrowerHandler.DeleteBorrower)

	// Loans (peminjaman / pengembalian / riwayat)
	protected.Get("/loans", loanHandler.GetLoans)
	protected.Get("/loans/:id", loanHandler.GetLoan)
	protected.Post("/loans", loanHandler.Checkout)
	protected.Post("/loans/:id/return", loanHandler.Return)

	// Settings (pengaturan)
	protected.Get("/settings", settingHandler.GetSettings)
	protected.Put("/settings", middleware.RequireRole(model.RoleAdmin), settingHandler.UpdateSettings)

	// WebSocket route
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		wsHub.Register <- c
		defer func() { wsHub.Unregister <- c }()

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))

	// 8. Graceful shutdown
	go func() {
		port := os.Getenv("PORT")
		if port == "" {
			port = "3000"
		}
		if err := app.Listen(":" + port); err != nil {
			log.Panic(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}

// seedSettingsAndAdmin creates the settings row and the admin account if missing
func seedSettingsAndAdmin(db *gorm.DB) {
	settingRepo := repository.NewSettingRepo(db)
	userRepo := repository.NewUserRepo(db)

	if err := settingRepo.SeedDefaults(); err != nil {
		log.Printf("Warning: Failed to seed settings: %v", err)
	}

	username := os.Getenv("ADMIN_USERNAME")
	if username == "" {
		username = "admin"
	}

	if _, err := userRepo.FindByUsername(username); err == nil {
		return
	}

	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "admin123"
		log.Println("Warning: ADMIN_PASSWORD not set, using default; change it immediately")
	}

	admin := &model.User{
		Username: username,
		FullName: "Administrator",
		Role:     model.RoleAdmin,
		IsActive: true,
	}
	admin.CreatedBy = "system"
	admin.UpdatedBy = "system"

	if err := admin.SetPassword(password); err != nil {
		log.Printf("Warning: Failed to hash admin password: %v", err)
		return
	}

	if err := userRepo.Create(admin); err != nil {
		log.Printf("Warning: Failed to create admin user: %v", err)
	} else {
		log.Printf("✅ Admin user created: %s", username)
	}
}
