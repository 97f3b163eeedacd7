package controller

import (
	"github.com/gin-gonic/gin"

	"modtraining_backend/internal/quiz"
	"modtraining_backend/internal/util"
)

type QuestionController struct {
	Bank *quiz.Bank
}

func NewQuestionController(bank *quiz.Bank) *QuestionController {
	return &QuestionController{Bank: bank}
}

// @Summary 获取考核题目
// @Description 返回全部情景题（不含评分关键词）
// @Tags 考核
// @Produce json
// @Success 200 {object} util.Response{data=[]quiz.PublicQuestion}
// @Router /api/questions [get]
func (c *QuestionController) List(ctx *gin.Context) {
	util.Success(ctx, c.Bank.Public())
}
