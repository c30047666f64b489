package controllers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/fitmania/gymdesk/app/models"
	"github.com/fitmania/gymdesk/app/repository"
	"github.com/fitmania/gymdesk/internal/pkg/session"
	"github.com/fitmania/gymdesk/internal/pkg/usercontext"
)

const (
	AUTH_KEY  string = usercontext.AuthKey
	USER_ID   string = usercontext.KeyUserID
	USER_NAME string = usercontext.KeyUsername
	GYM_NAME  string = usercontext.KeyGymName
)

func HandleAuthLogin(c *fiber.Ctx) error {
	var (
		user *models.User
		err  error
	)
	fm := fiber.Map{
		"type": "error",
	}

	// notice: in production you should not inform the user
	// with detailed messages about login failures
	userRepo := repository.GetGlobalFactory().GetUserRepository()
	user, err = userRepo.GetByEmail(c.FormValue("email"))
	if err != nil {
		fm["message"] = "There is a problem with the login process"

		return flash.WithError(c, fm).Redirect("/login")
	}

	if models.CheckPasswordHash(c.FormValue("password"), user.Password) == false {
		fm["message"] = "There is a problem with the login process"

		return flash.WithError(c, fm).Redirect("/login")
	}

	if !user.IsActive() {
		fm["message"] = "This account is deactivated"

		return flash.WithError(c, fm).Redirect("/login")
	}

	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		fm["message"] = fmt.Sprintf("something went wrong: %s", err)

		return flash.WithError(c, fm).Redirect("/login")
	}

	sess.Set(AUTH_KEY, true)
	sess.Set(USER_ID, user.ID)
	sess.Set(USER_NAME, user.Name)
	sess.Set(GYM_NAME, user.GymName)

	err = sess.Save()
	if err != nil {
		fm["message"] = fmt.Sprintf("something went wrong: %s", err)

		return flash.WithError(c, fm).Redirect("/login")
	}

	userRepo.UpdateLastLogin(user.ID, time.Now())

	fm = fiber.Map{
		"type":    "success",
		"message": "Welcome back!",
	}

	return flash.WithSuccess(c, fm).Redirect("/")
}

func HandleAuthLogout(c *fiber.Ctx) error {
	fm := fiber.Map{
		"type": "error",
	}

	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		fm["message"] = "logged out (no sess)"

		return flash.WithError(c, fm).Redirect("/login")
	}

	err = sess.Destroy()
	if err != nil {
		fm["message"] = fmt.Sprintf("something went wrong: %s", err)

		return flash.WithError(c, fm).Redirect("/login")
	}

	fm = fiber.Map{
		"type":    "success",
		"message": "Logged out. See you tomorrow at the gym!",
	}

	c.Locals(usercontext.KeyFromProtected, false)

	return flash.WithSuccess(c, fm).Redirect("/login")
}

func HandleAuthRegister(c *fiber.Ctx) error {
	user, err := models.CreateUser(c.FormValue("username"), c.FormValue("email"), c.FormValue("password"))
	if err != nil {
		fm := fiber.Map{
			"type":    "error",
			"message": fmt.Sprintf("something went wrong: %s", err),
		}

		return flash.WithError(c, fm).Redirect("/register")
	}
	user.GymName = c.FormValue("gym_name")

	err = repository.GetGlobalFactory().GetUserRepository().Create(user)
	if err != nil {
		fm := fiber.Map{
			"type":    "error",
			"message": fmt.Sprintf("something went wrong: %s", err),
		}
		if isDuplicateKeyErr(err) {
			fm["message"] = "An account with this email already exists"
		}

		return flash.WithError(c, fm).Redirect("/register")
	}

	fm := fiber.Map{
		"type":    "success",
		"message": "Account created, you can log in now",
	}

	return flash.WithSuccess(c, fm).Redirect("/login")
}
