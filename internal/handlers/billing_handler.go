package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"billing-service/internal/httpapi"
	"billing-service/internal/models"
	"billing-service/internal/services"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

// BillingHandler exposes the billing engine over HTTP. The routes are a thin
// mapping layer; all behavior lives in the services.
type BillingHandler struct {
	billingService     *services.BillingService
	calculationService *services.BillCalculationService
	eligibilityService *services.EligibilityService
	trigger            *services.AutoBillTrigger
	runService         *services.BillingRunService
	defaultMinDays     int
}

func NewBillingHandler(
	billingService *services.BillingService,
	calculationService *services.BillCalculationService,
	eligibilityService *services.EligibilityService,
	trigger *services.AutoBillTrigger,
	runService *services.BillingRunService,
	defaultMinDays int,
) *BillingHandler {
	return &BillingHandler{
		billingService:     billingService,
		calculationService: calculationService,
		eligibilityService: eligibilityService,
		trigger:            trigger,
		runService:         runService,
		defaultMinDays:     defaultMinDays,
	}
}

func (bh *BillingHandler) Register(app *fiber.App) {
	protectedGr := app.Group("billing/protected/api/v1")

	billGroup := protectedGr.Group("/bills")
	billGroup.Post("/calculate", bh.CalculateBill)
	billGroup.Post("/", bh.CreateBill)
	billGroup.Get("/:id", bh.GetBill)
	billGroup.Post("/:id/recalculate", bh.RecalculateBill)
	billGroup.Post("/:id/void", bh.VoidBill)

	meterGroup := protectedGr.Group("/meters")
	meterGroup.Get("/:meterId/bills", bh.ListBillsByMeter)
	meterGroup.Get("/:meterId/billing-eligibility", bh.CheckEligibility)
	meterGroup.Post("/:meterId/generate-bill", bh.GenerateBill)

	protectedGr.Post("/billing-runs", bh.RunBilling)
}

func (bh *BillingHandler) CalculateBill(c fiber.Ctx) error {
	var req models.CalculateBillRequest
	if err := c.Bind().Body(&req); err != nil {
		slog.Error("error parsing request", "error", err)
		return c.Status(http.StatusBadRequest).JSON(httpapi.CreateErrorResponse("INVALID_REQUEST", "Invalid request body"))
	}
	if err := req.Validate(); err != nil {
		return c.Status(http.StatusBadRequest).JSON(httpapi.CreateErrorResponse("VALIDATION_FAILED", err.Error()))
	}

	calc, err := bh.calculationService.Calculate(req.MeterID, req.PeriodStart, req.PeriodEnd)
	if err != nil {
		return billingError(c, "CALCULATION_FAILED", err)
	}

	return c.Status(http.StatusOK).JSON(httpapi.CreateSuccessResponse(calc))
}

func (bh *BillingHandler) CreateBill(c fiber.Ctx) error {
	var req models.CreateBillRequest
	if err := c.Bind().Body(&req); err != nil {
		slog.Error("error parsing request", "error", err)
		return c.Status(http.StatusBadRequest).JSON(httpapi.CreateErrorResponse("INVALID_REQUEST", "Invalid request body"))
	}
	if err := req.Validate(); err != nil {
		return c.Status(http.StatusBadRequest).JSON(httpapi.CreateErrorResponse("VALIDATION_FAILED", err.Error()))
	}

	bill, err := bh.billingService.Create(req.MeterID, req.PeriodStart, req.PeriodEnd, req.DueDays)
	if err != nil {
		return billingError(c, "CREATION_FAILED", err)
	}

	return c.Status(http.StatusCreated).JSON(httpapi.CreateSuccessResponse(bill))
}

func (bh *BillingHandler) GetBill(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(httpapi.CreateErrorResponse("INVALID_ID", "Invalid UUID format"))
	}

	bill, err := bh.billingService.GetBill(id)
	if err != nil {
		return billingError(c, "FETCH_FAILED", err)
	}

	return c.Status(http.StatusOK).JSON(httpapi.CreateSuccessResponse(bill))
}

func (bh *BillingHandler) RecalculateBill(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(httpapi.CreateErrorResponse("INVALID_ID", "Invalid UUID format"))
	}

	bill, err := bh.billingService.Recalculate(id)
	if err != nil {
		return billingError(c, "RECALCULATION_FAILED", err)
	}

	return c.Status(http.StatusOK).JSON(httpapi.CreateSuccessResponse(bill))
}

func (bh *BillingHandler) VoidBill(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(httpapi.CreateErrorResponse("INVALID_ID", "Invalid UUID format"))
	}

	var req models.VoidBillRequest
	if err := c.Bind().Body(&req); err != nil {
		slog.Error("error parsing request", "error", err)
		return c.Status(http.StatusBadRequest).JSON(httpapi.CreateErrorResponse("INVALID_REQUEST", "Invalid request body"))
	}
	if err := req.Validate(); err != nil {
		return c.Status(http.StatusBadRequest).JSON(httpapi.CreateErrorResponse("VALIDATION_FAILED", err.Error()))
	}

	bill, err := bh.billingService.Void(id, req.Reason, req.ActorID)
	if err != nil {
		return billingError(c, "VOID_FAILED", err)
	}

	return c.Status(http.StatusOK).JSON(httpapi.CreateSuccessResponse(bill))
}

func (bh *BillingHandler) ListBillsByMeter(c fiber.Ctx) error {
	meterID, err := uuid.Parse(c.Params("meterId"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(httpapi.CreateErrorResponse("INVALID_ID", "Invalid UUID format"))
	}

	bills, err := bh.billingService.ListBillsByMeter(meterID)
	if err != nil {
		return billingError(c, "FETCH_FAILED", err)
	}

	return c.Status(http.StatusOK).JSON(httpapi.CreateSuccessResponse(bills))
}

func (bh *BillingHandler) CheckEligibility(c fiber.Ctx) error {
	meterID, err := uuid.Parse(c.Params("meterId"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(httpapi.CreateErrorResponse("INVALID_ID", "Invalid UUID format"))
	}

	candidateDate := time.Now()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return c.Status(http.StatusBadRequest).JSON(httpapi.CreateErrorResponse("INVALID_DATE", "date must be YYYY-MM-DD"))
		}
		candidateDate = parsed
	}

	result, err := bh.eligibilityService.Evaluate(meterID, candidateDate, bh.defaultMinDays)
	if err != nil {
		return billingError(c, "ELIGIBILITY_FAILED", err)
	}

	return c.Status(http.StatusOK).JSON(httpapi.CreateSuccessResponse(result))
}

// GenerateBill is the manual counterpart of the reading-event trigger: same
// eligibility gate, same options. The trigger result (Generated, Skipped or
// Failed, with reason) is returned in the response body.
func (bh *BillingHandler) GenerateBill(c fiber.Ctx) error {
	meterID, err := uuid.Parse(c.Params("meterId"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(httpapi.CreateErrorResponse("INVALID_ID", "Invalid UUID format"))
	}

	var req models.GenerateBillRequest
	if err := c.Bind().Body(&req); err != nil {
		slog.Error("error parsing request", "error", err)
		return c.Status(http.StatusBadRequest).JSON(httpapi.CreateErrorResponse("INVALID_REQUEST", "Invalid request body"))
	}
	if err := req.Validate(); err != nil {
		return c.Status(http.StatusBadRequest).JSON(httpapi.CreateErrorResponse("VALIDATION_FAILED", err.Error()))
	}

	reading := models.MeterReading{
		MeterID:     meterID,
		ReadingDate: req.ReadingDate,
	}
	result := bh.trigger.HandleReadingRecorded(c.Context(), reading, req.Options)

	return c.Status(http.StatusOK).JSON(httpapi.CreateSuccessResponse(result))
}

func (bh *BillingHandler) RunBilling(c fiber.Ctx) error {
	report, err := bh.runService.Run(time.Now())
	if err != nil {
		return billingError(c, "RUN_FAILED", err)
	}

	return c.Status(http.StatusOK).JSON(httpapi.CreateSuccessResponse(report))
}

// billingError maps the billing error taxonomy onto HTTP statuses.
func billingError(c fiber.Ctx, code string, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, models.ErrInvalidState),
		errors.Is(err, models.ErrInsufficientData),
		errors.Is(err, models.ErrInvalidData):
		status = http.StatusUnprocessableEntity
	}
	return c.Status(status).JSON(httpapi.CreateErrorResponse(code, err.Error()))
}
