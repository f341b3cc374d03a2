package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"supermart/internal/domain"
	applog "supermart/internal/log"
	"supermart/internal/services"
	"supermart/internal/session"
	"supermart/internal/validate"
)

type FeedbackHandler struct {
	Feedback *services.FeedbackService
}

func (h *FeedbackHandler) Form(c *fiber.Ctx) error {
	return render(c, "feedback", nil)
}

// POST /feedback
func (h *FeedbackHandler) Submit(c *fiber.Ctx) error {
	err := h.Feedback.Submit(c.UserContext(), currentUser(c).ID,
		c.FormValue("title"), c.FormValue("comment"), validate.Rating(c.FormValue("rating")))
	if errors.Is(err, services.ErrFeedbackIncomplete) {
		return redirect(c, "/feedback", session.FlashError, "Please enter a title and a comment")
	}
	if err != nil {
		applog.Error(c, "feedback.submit.fail", err, nil)
		return redirect(c, "/feedback", session.FlashError, "Could not save your feedback")
	}
	applog.Info(c, "feedback.submit", nil)
	return redirect(c, "/shopping", session.FlashSuccess, "Thank you for your feedback!")
}

// GET /feedback/all
func (h *FeedbackHandler) List(c *fiber.Ctx) error {
	list, err := h.Feedback.List(c.UserContext())
	if err != nil {
		applog.Error(c, "admin.feedback.list.fail", err, nil)
		return redirect(c, "/inventory", session.FlashError, "Could not load feedback")
	}
	return render(c, "feedback_list", fiber.Map{"Feedback": list})
}

// POST /feedback/delete/:id
func (h *FeedbackHandler) Delete(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return redirect(c, "/feedback/all", session.FlashError, "Feedback not found")
	}
	err := h.Feedback.Delete(c.UserContext(), id)
	if errors.Is(err, domain.ErrNotFound) {
		return redirect(c, "/feedback/all", session.FlashError, "Feedback not found")
	}
	if err != nil {
		applog.Error(c, "admin.feedback.delete.fail", err, map[string]any{"feedback_id": id})
		return redirect(c, "/feedback/all", session.FlashError, "Could not delete feedback")
	}
	applog.Audit(c, "admin.feedback.delete", map[string]any{"feedback_id": id})
	return redirect(c, "/feedback/all", session.FlashSuccess, "Feedback deleted")
}
