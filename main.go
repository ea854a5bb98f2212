// @title           Maintenance Quotation API
// @version         1.0
// @description     Facilities maintenance backend - quotations, purchase orders, finance and notifications.

// @contact.name   API Support

// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

// @schemes http https
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	_ "backend/docs"
	"backend/handlers"
	"backend/services"
	"backend/storage"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

var cronRunning int32

func CORSConfig() cors.Config {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{
		"http://localhost:9000",
		"http://localhost:8080",
		"http://localhost:3000",
	}
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		corsConfig.AllowOrigins = append(corsConfig.AllowOrigins, origins)
	}
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{
		"Content-Type", "Content-Length", "Accept-Encoding",
		"Accept", "Origin", "X-Requested-With", "Authorization", "User-Agent",
		"Cache-Control", "Referer",
		"Access-Control-Request-Method", "Access-Control-Request-Headers",
	}
	corsConfig.AllowMethods = []string{
		"GET", "POST", "PUT", "DELETE", "OPTIONS", "HEAD", "PATCH",
	}
	corsConfig.ExposeHeaders = []string{
		"Content-Length", "Authorization", "Content-Type", "Content-Disposition",
	}
	corsConfig.MaxAge = 12 * time.Hour
	return corsConfig
}

func main() {
	db := storage.InitGormDB()
	if err := storage.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	quotationSvc := services.NewQuotationService(db)
	notificationSvc := services.NewNotificationService(db)
	pdfSvc := services.NewPDFService(db)
	defer pdfSvc.Close()
	emailSvc := services.NewEmailService(db)

	// Push notifications are optional; the service stays nil without credentials.
	credentialsPath := os.Getenv("FCM_CREDENTIALS_PATH")
	if credentialsPath == "" {
		credentialsPath = "firebase-credentials.json"
	}
	pushSvc, err := services.NewPushService(credentialsPath, db)
	if err != nil {
		log.Printf("Warning: Failed to initialize push service: %v. Push notifications will be disabled.", err)
		pushSvc = nil
	} else {
		log.Println("Push service initialized successfully")
		notificationSvc.SetPushService(pushSvc)
	}

	// Hourly notification scan with a lock so a slow cycle never overlaps the
	// next one.
	cronLogFile, err := os.OpenFile("cron_errors.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Printf("Failed to open cron error log file: %v", err)
	}
	cronLogger := log.New(cronLogFile, "CRON_ERROR: ", log.LstdFlags)

	runScan := func() {
		if !atomic.CompareAndSwapInt32(&cronRunning, 0, 1) {
			log.Println("Previous notification scan still running. Skipping this run.")
			if cronLogger != nil {
				cronLogger.Println("Previous notification scan still running. Skipping this run.")
			}
			return
		}
		defer atomic.StoreInt32(&cronRunning, 0)

		counts := notificationSvc.GenerateNotifications()
		log.Printf("Notification scan: %d approval delays, %d workflow gaps, %d incomplete data",
			counts.ApprovalDelays, counts.WorkflowGaps, counts.IncompleteData)

		if counts.Total > 0 {
			if recipient := os.Getenv("DIGEST_RECIPIENT"); recipient != "" {
				if err := emailSvc.SendNotificationDigest(recipient, counts); err != nil {
					log.Printf("Failed to send notification digest: %v", err)
					if cronLogger != nil {
						cronLogger.Printf("Failed to send notification digest: %v", err)
					}
				}
			}
		}
	}

	c := cron.New(
		cron.WithLogger(cron.VerbosePrintfLogger(log.New(os.Stdout, "cron: ", log.LstdFlags))),
	)
	if _, err := c.AddFunc("0 * * * *", runScan); err != nil {
		log.Fatalf("Failed to schedule notification scan: %v", err)
	}
	c.Start()
	defer c.Stop()

	// First scan shortly after boot so a restarted server catches up without
	// waiting for the top of the hour.
	time.AfterFunc(30*time.Second, runScan)

	r := gin.Default()
	r.MaxMultipartMemory = 8 << 20

	r.Use(cors.New(CORSConfig()))

	// ==================== 1. AUTH & LOGIN ====================
	r.POST("/api/login", handlers.LoginHandler(db))
	r.POST("/api/refresh-token", handlers.RefreshTokenHandler(db))

	api := r.Group("/api", handlers.AuthMiddleware())
	api.GET("/validate-token", handlers.ValidateTokenHandler())

	// ==================== 2. USERS ====================
	users := api.Group("", handlers.RequirePermission("manage_users"))
	users.POST("/create_user", handlers.CreateUser(db))
	users.PUT("/update_user/:id", handlers.UpdateUser(db))
	users.GET("/user_fetch/:id", handlers.GetUser(db))
	users.GET("/users", handlers.GetAllUsers(db))
	users.DELETE("/user_delete/:id", handlers.DeleteUser(db))

	// ==================== 3. QUOTATIONS ====================
	api.POST("/quotations", handlers.CreateQuotation(quotationSvc))
	api.PUT("/quotations/:id", handlers.UpdateQuotation(quotationSvc))
	api.GET("/quotations/:id", handlers.GetQuotation(quotationSvc))
	api.GET("/quotations", handlers.ListQuotations(quotationSvc))
	api.GET("/quotations/search", handlers.SearchQuotations(quotationSvc))
	api.GET("/intakes", handlers.ListIntakes(quotationSvc))
	api.DELETE("/quotations/:id", handlers.DeleteQuotation(quotationSvc))
	api.POST("/quotations/:id/revisions", handlers.CreateRevisionHandler(quotationSvc))
	api.GET("/quotations/bin", handlers.ListBin(quotationSvc))
	api.POST("/quotations/:id/restore", handlers.RestoreQuotation(quotationSvc))
	api.DELETE("/quotations/:id/permanent", handlers.PermanentDeleteQuotation(quotationSvc))
	api.GET("/quotations/:id/purchase-orders", handlers.GetPurchaseOrdersByJob(db))

	// ==================== 4. FINANCE ====================
	api.GET("/finance/:po_no", handlers.GetFinanceByPoNo(db))
	api.PUT("/finance/:po_no", handlers.UpsertFinance(db))

	// ==================== 5. STORES & PRICE LISTS ====================
	api.GET("/stores", handlers.GetStores(db))
	api.GET("/stores/:ccid", handlers.GetStoreByCCID(db))
	api.POST("/custom-stores", handlers.CreateCustomStore(db))
	api.PUT("/custom-stores/:id", handlers.UpdateCustomStore(db))
	api.DELETE("/custom-stores/:id", handlers.DeleteCustomStore(db))
	api.GET("/price-lists", handlers.GetPriceLists(db))
	api.GET("/price-lists/:code", handlers.GetPriceListByCode(db))
	api.POST("/custom-price-lists", handlers.CreateCustomPriceList(db))
	api.PUT("/custom-price-lists/:id", handlers.UpdateCustomPriceList(db))
	api.DELETE("/custom-price-lists/:id", handlers.DeleteCustomPriceList(db))
	api.GET("/client-groups", handlers.GetClientGroups(db))
	api.POST("/client-groups", handlers.CreateClientGroup(db))
	api.PUT("/client-groups/:id", handlers.UpdateClientGroup(db))
	api.DELETE("/client-groups/:id", handlers.DeleteClientGroup(db))

	// ==================== 6. IMPORT / EXPORT ====================
	api.POST("/import/stores", handlers.ImportStoresCSV(db))
	api.POST("/import/price-lists", handlers.ImportPriceListCSV(db))
	api.GET("/export/quotations", handlers.ExportQuotationsExcel(db))

	// ==================== 7. PDF & QR ====================
	api.GET("/pdf/generate/:id", handlers.GeneratePDF(pdfSvc))
	api.POST("/pdf/preview-prepare", handlers.PreparePDFPreview(pdfSvc))
	api.GET("/pdf/preview-data/:id", handlers.GetPDFPreviewData(pdfSvc))
	api.GET("/pdf/preview/:id", handlers.RenderPDFPreview(pdfSvc))
	api.GET("/generate-qr/:id", handlers.GenerateQuotationQRCode(db))

	// ==================== 8. FILES ====================
	api.POST("/upload", handlers.UploadFile())
	r.GET("/uploads/:filename", handlers.ServeFile())

	// ==================== 9. NOTIFICATIONS ====================
	api.GET("/notifications", handlers.GetNotificationsHandler(notificationSvc))
	api.PUT("/notifications/:id/read", handlers.MarkNotificationAsReadHandler(notificationSvc))
	api.PUT("/notifications/read-all", handlers.MarkAllNotificationsAsReadHandler(notificationSvc))
	api.DELETE("/notifications/:id", handlers.DeleteNotificationHandler(notificationSvc))
	api.POST("/notifications/generate", handlers.GenerateNotificationsHandler(notificationSvc))
	api.POST("/fcm-token", handlers.RegisterFCMTokenHandler(pushSvc))
	api.DELETE("/fcm-token", handlers.RemoveFCMTokenHandler(pushSvc))

	// ==================== 10. EMAIL TEMPLATES ====================
	api.GET("/email-templates", handlers.GetEmailTemplates(db))
	api.GET("/email-templates/:id", handlers.GetEmailTemplateByID(db))
	api.POST("/email-templates", handlers.CreateEmailTemplate(db))
	api.PUT("/email-templates/:id", handlers.UpdateEmailTemplate(db))
	api.DELETE("/email-templates/:id", handlers.DeleteEmailTemplate(db))
	api.POST("/email-templates/preview", handlers.PreviewEmailTemplate(emailSvc))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	port := os.Getenv("PORT")
	if port == "" {
		port = "9000"
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exiting")
}
