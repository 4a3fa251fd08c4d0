package main

import (
	"fmt"
	"net/http"

	"github.com/agrofield/attendance-backend-go/internal/config"
	appHTTP "github.com/agrofield/attendance-backend-go/internal/handler/http"
	"github.com/agrofield/attendance-backend-go/internal/pkg/database"
	"github.com/agrofield/attendance-backend-go/internal/pkg/jwt"
	"github.com/agrofield/attendance-backend-go/internal/repository/postgresql"
	attendanceService "github.com/agrofield/attendance-backend-go/internal/service/attendance"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	dsn := cfg.DatabaseURL()
	db, err := database.NewPostgreSQLDB(dsn)
	if err != nil {
		fmt.Println("Error connecting to database:", err)
		return
	}

	attendanceRepo := postgresql.NewAttendanceRepository(db)
	employeeRepo := postgresql.NewEmployeeRepository(db)
	areaRepo := postgresql.NewAreaRepository(db)
	txRunner := postgresql.NewTxRunner(db)

	jwtService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	attendanceSvc := attendanceService.NewAttendanceService(txRunner, attendanceRepo, employeeRepo, areaRepo)

	attendanceHandler := appHTTP.NewAttendanceHandler(attendanceSvc)

	router := appHTTP.NewRouter(cfg, jwtService, attendanceHandler)

	port := fmt.Sprintf(":%d", cfg.App.Port)
	fmt.Printf("Server running at http://localhost%s\n", port)
	if err := http.ListenAndServe(port, router); err != nil {
		fmt.Println("Server error:", err)
	}
}
