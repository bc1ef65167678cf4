package views

import (
	"context"
	"errors"
	"strings"

	"telebbs/internal/app/protocol"
	"telebbs/internal/app/repository"
	"telebbs/internal/pkg/errs"
	"telebbs/internal/pkg/logx"
)

type loginStage int

const (
	stageOptions loginStage = iota
	stageUsername
	stagePassword
)

var loginOptions = []string{"Login", "Register"}

// LoginRegisterScreen collects a username and then a password, and either
// validates them or registers a new account.
type LoginRegisterScreen struct {
	base
	repo repository.Repository

	cursor   cursor
	stage    loginStage
	register bool

	username string
	password string

	// errMsg is shown until the next Enter.
	errMsg string

	// userID is set once credentials are accepted.
	userID int64
}

func NewLoginRegisterScreen(repo repository.Repository) *LoginRegisterScreen {
	return &LoginRegisterScreen{repo: repo, userID: repository.NoID}
}

func (v *LoginRegisterScreen) SubjectID() int64 { return v.userID }

func (v *LoginRegisterScreen) Render() string {
	var b strings.Builder

	if v.errMsg != "" {
		b.WriteString(errorStyle.Render("Login ERROR"))
		b.WriteString("\n\n")
		writeError(&b, v.errMsg)
		writeHelp(&b, "Press Enter to continue.")
		return b.String()
	}

	writeTitle(&b, "Login")
	switch v.stage {
	case stageUsername:
		b.WriteString(titleStyle.Render("> Username: "))
		b.WriteString(v.username)
	case stagePassword:
		b.WriteString(titleStyle.Render("> Password: "))
	default:
		for i, opt := range loginOptions {
			writeOption(&b, opt, i == v.cursor.index)
		}
		writeHelp(&b, "Use Up/Down and Enter to select.")
	}
	return b.String()
}

func (v *LoginRegisterScreen) HandleEvent(ctx context.Context, ev protocol.Event, text string) protocol.Event {
	if v.errMsg != "" {
		if ev == protocol.Enter {
			v.reset()
			return ev
		}
		return protocol.Unknown
	}

	switch v.stage {
	case stageUsername:
		switch ev {
		case protocol.CtrlQ:
			v.reset()
			return protocol.InputModeDisable
		case protocol.Enter:
			v.username = strings.TrimSpace(text)
			if v.username == "" {
				return protocol.Unknown
			}
			v.stage = stagePassword
			return protocol.SecretInputModeEnable
		}
		v.username = text
		return ev

	case stagePassword:
		switch ev {
		case protocol.CtrlQ:
			v.reset()
			return protocol.InputModeDisable
		case protocol.Enter:
			v.password = text
			if v.password == "" {
				return protocol.Unknown
			}
			return v.submit(ctx)
		}
		v.password = text
		return ev
	}

	switch ev {
	case protocol.UpArrow, protocol.DownArrow:
		v.cursor.move(ev, len(loginOptions))
	case protocol.Enter:
		v.register = loginOptions[v.cursor.index] == "Register"
		v.stage = stageUsername
		return protocol.InputModeEnable
	}
	return ev
}

func (v *LoginRegisterScreen) submit(ctx context.Context) protocol.Event {
	var (
		id  int64
		err error
	)
	if v.register {
		id, err = v.repo.CreateUser(ctx, v.username, v.password)
	} else {
		id, err = v.repo.ValidateUser(ctx, v.username, v.password)
	}

	if err != nil {
		if !isCustom(err) {
			logx.Error(err, "Credential check failed", "register", v.register)
		}
		v.reset()
		v.errMsg = errs.Message(err)
		return protocol.InputModeDisable
	}

	if err := v.repo.LoginUser(ctx, id); err != nil {
		logx.Error(err, "Failed to mark user logged in", "user_id", id)
	}
	v.userID = id
	v.password = ""
	return v.navigate(MenuView, protocol.Authenticate)
}

func (v *LoginRegisterScreen) reset() {
	v.stage = stageOptions
	v.register = false
	v.username = ""
	v.password = ""
	v.errMsg = ""
	v.userID = repository.NoID
}

func isCustom(err error) bool {
	var custom *errs.CustomError
	return errors.As(err, &custom)
}
