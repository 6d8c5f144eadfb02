package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"course-planner/internal/service"
	"course-planner/internal/timeplace"
	"course-planner/pkg/errcode"
	"course-planner/pkg/response"
)

// RegisterValidators 向 gin 的校验引擎注册自定义 tag：
//
//	hhmm      HH:MM 时刻
//	hexcolor6 #RRGGBB 颜色
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin 校验引擎不是 validator/v10")
	}
	if err := v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		_, err := timeplace.ParseTime(fl.Field().String())
		return err == nil
	}); err != nil {
		return err
	}
	return v.RegisterValidation("hexcolor6", func(fl validator.FieldLevel) bool {
		return service.IsHexColor(fl.Field().String())
	})
}

func isValidationError(err error) bool {
	var verrs validator.ValidationErrors
	return errors.As(err, &verrs)
}

// handleBindError 参数绑定失败：自定义 tag 映射到对应业务码，其余统一为 INPUT_OUT_OF_RANGE
func handleBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			switch fe.Tag() {
			case "hexcolor6":
				response.ErrorWithDetails(c, http.StatusBadRequest, errcode.InvalidColor, "颜色格式不合法", fe.Field())
				return
			case "hhmm":
				response.ErrorWithDetails(c, http.StatusBadRequest, errcode.InvalidTimeJSON, "上课时间数据不合法", fe.Field())
				return
			}
		}
	}
	response.ErrorWithDetails(c, http.StatusBadRequest, errcode.InputOutOfRange, "参数校验失败", err.Error())
}
