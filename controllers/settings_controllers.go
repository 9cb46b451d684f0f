package controllers

import (
	"errors"
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/MarkoM123/cafe-gaming-platform/models"
	"github.com/MarkoM123/cafe-gaming-platform/utils"
)

var clockRe = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

type SettingsController struct {
	DB *gorm.DB
}

func NewSettingsController(db *gorm.DB) *SettingsController {
	return &SettingsController{DB: db}
}

// GetOperatingHours returns the weekly schedule. Missing weekdays are
// seeded with a 10:00-22:00 default so the response always has 7 rows.
func (sc *SettingsController) GetOperatingHours(c *gin.Context) {
	hours, err := sc.loadOrSeed()
	if err != nil {
		utils.RespondError(c, http.StatusServiceUnavailable, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Operating hours", hours)
}

// UpdateOperatingHours upserts the schedule for a single weekday.
func (sc *SettingsController) UpdateOperatingHours(c *gin.Context) {
	var req struct {
		DayOfWeek *int   `json:"day_of_week" binding:"required"`
		OpenTime  string `json:"open_time" binding:"required"`
		CloseTime string `json:"close_time" binding:"required"`
		IsClosed  bool   `json:"is_closed"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if *req.DayOfWeek < 0 || *req.DayOfWeek > 6 {
		utils.RespondError(c, http.StatusBadRequest, errors.New("day_of_week must be between 0 and 6"))
		return
	}
	if !clockRe.MatchString(req.OpenTime) || !clockRe.MatchString(req.CloseTime) {
		utils.RespondError(c, http.StatusBadRequest, errors.New("times must use HH:MM 24-hour format"))
		return
	}

	var row models.OperatingHour
	err := sc.DB.Where("day_of_week = ?", *req.DayOfWeek).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		row = models.OperatingHour{DayOfWeek: *req.DayOfWeek}
	} else if err != nil {
		utils.RespondError(c, http.StatusServiceUnavailable, err)
		return
	}

	row.OpenTime = req.OpenTime
	row.CloseTime = req.CloseTime
	row.IsClosed = req.IsClosed
	if err := sc.DB.Save(&row).Error; err != nil {
		utils.RespondError(c, http.StatusServiceUnavailable, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Operating hours updated", row)
}

func (sc *SettingsController) loadOrSeed() ([]models.OperatingHour, error) {
	var hours []models.OperatingHour
	if err := sc.DB.Order("day_of_week asc").Find(&hours).Error; err != nil {
		return nil, err
	}
	if len(hours) == 7 {
		return hours, nil
	}

	present := make(map[int]bool, len(hours))
	for _, h := range hours {
		present[h.DayOfWeek] = true
	}
	for day := 0; day < 7; day++ {
		if present[day] {
			continue
		}
		row := models.OperatingHour{DayOfWeek: day, OpenTime: "10:00", CloseTime: "22:00"}
		if err := sc.DB.Create(&row).Error; err != nil {
			return nil, err
		}
		hours = append(hours, row)
	}

	// Re-read for stable ordering after seeding.
	hours = hours[:0]
	if err := sc.DB.Order("day_of_week asc").Find(&hours).Error; err != nil {
		return nil, err
	}
	return hours, nil
}
