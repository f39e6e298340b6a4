package mail_fx

import (
	"log"
	"os"
	"strconv"

	"go.uber.org/fx"

	"shoply/internal/services"
)

var Module = fx.Provide(provideMailService)

func provideMailService() services.IMailService {
	port, _ := strconv.Atoi(os.Getenv("SMTP_PORT"))
	if port == 0 {
		port = 587
	}
	cfg := services.SMTPConfig{
		Host:     os.Getenv("SMTP_HOST"),
		Port:     port,
		Username: os.Getenv("SMTP_USERNAME"),
		Password: os.Getenv("SMTP_PASSWORD"),
		From:     os.Getenv("SMTP_FROM"),
		FromName: "Shoply",
		AppName:  "Shoply",
	}

	mailer, err := services.NewSMTPMailService(cfg)
	if err != nil {
		log.Println("SMTP not configured, order confirmations will be logged only")
		return services.NewLogMailService()
	}
	return mailer
}
