package service

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/mail"
	"text/template"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	infra_mail "github.com/RoyceAzure/lab/storefront/internal/infra/mail"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/storefront/internal/token"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidEmail       = errors.New("email is invalid")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidResetToken  = errors.New("reset token is invalid or expired")
)

const resetTokenTTL = 15 * time.Minute

type IUserService interface {
	Register(ctx context.Context, name, email, password string) (string, error)
	Login(ctx context.Context, email, password string) (string, error)
	AdminLogin(ctx context.Context, email, password string) (string, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, resetToken, newPassword string) error
	GetUser(ctx context.Context, userID uint) (*model.User, error)
}

type UserService struct {
	userRepo      db.IUserRepository
	tokenMaker    *token.Maker
	mailSender    infra_mail.EmailSender
	frontendURL   string
	adminEmail    string
	adminPassword string
}

func NewUserService(
	userRepo db.IUserRepository,
	tokenMaker *token.Maker,
	mailSender infra_mail.EmailSender,
	frontendURL, adminEmail, adminPassword string,
) *UserService {
	return &UserService{
		userRepo:      userRepo,
		tokenMaker:    tokenMaker,
		mailSender:    mailSender,
		frontendURL:   frontendURL,
		adminEmail:    adminEmail,
		adminPassword: adminPassword,
	}
}

func (s *UserService) Register(ctx context.Context, name, email, password string) (string, error) {
	if _, err := mail.ParseAddress(email); err != nil {
		return "", ErrInvalidEmail
	}
	if len(password) < 8 {
		return "", ErrWeakPassword
	}

	exists, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if exists != nil {
		return "", ErrUserAlreadyExists
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	user := &model.User{
		Name:     name,
		Email:    email,
		Password: string(hashed),
	}
	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		return "", err
	}

	return s.tokenMaker.CreateToken(user.UserID, false)
}

func (s *UserService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", ErrUserNotExist
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	return s.tokenMaker.CreateToken(user.UserID, false)
}

// AdminLogin 管理端帳密來自設定檔，admin token 不綁用戶
func (s *UserService) AdminLogin(ctx context.Context, email, password string) (string, error) {
	if s.adminEmail == "" || email != s.adminEmail || password != s.adminPassword {
		return "", ErrInvalidCredentials
	}
	return s.tokenMaker.CreateToken(0, true)
}

// ForgotPassword 寄出帶一次性 token 的重設連結，找不到帳號時也回成功，
// 避免被拿來探測 email 是否註冊過
func (s *UserService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return nil
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return err
	}
	resetToken := hex.EncodeToString(buf)

	if err := s.userRepo.SetResetToken(ctx, user.UserID, resetToken, time.Now().Add(resetTokenTTL)); err != nil {
		return err
	}

	html, err := generateResetEmailHTML(resetEmailData{
		UserName: user.Name,
		ResetURL: fmt.Sprintf("%s/reset-password?token=%s", s.frontendURL, resetToken),
		Minutes:  int(resetTokenTTL.Minutes()),
	})
	if err != nil {
		return err
	}

	return s.mailSender.SendEmail("Đặt lại mật khẩu", html, []string{user.Email}, nil, nil, nil)
}

func (s *UserService) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	if len(newPassword) < 8 {
		return ErrWeakPassword
	}

	user, err := s.userRepo.GetUserByResetToken(ctx, resetToken)
	if err != nil {
		return err
	}
	if user == nil || user.ResetToken == "" || time.Now().After(user.ResetTokenExpiresAt) {
		return ErrInvalidResetToken
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user.Password = string(hashed)
	user.ResetToken = ""
	user.ResetTokenExpiresAt = time.Time{}
	return s.userRepo.UpdateUser(ctx, user)
}

func (s *UserService) GetUser(ctx context.Context, userID uint) (*model.User, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotExist
	}
	return user, nil
}

type resetEmailData struct {
	UserName string
	ResetURL string
	Minutes  int
}

func generateResetEmailHTML(data resetEmailData) (string, error) {
	tmpl, err := template.New("resetEmail").Parse(resetEmailTemplate)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const resetEmailTemplate = `
<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><title>Đặt lại mật khẩu</title></head>
<body style="font-family: Arial, sans-serif; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2>Xin chào {{.UserName}},</h2>
    <p>Bạn vừa yêu cầu đặt lại mật khẩu. Nhấn vào nút bên dưới để tiếp tục:</p>
    <p><a href="{{.ResetURL}}" style="display:inline-block;padding:12px 30px;background-color:#007bff;color:#fff;text-decoration:none;border-radius:5px;">Đặt lại mật khẩu</a></p>
    <p>Liên kết có hiệu lực trong {{.Minutes}} phút. Nếu không phải bạn yêu cầu, hãy bỏ qua email này.</p>
  </div>
</body>
</html>
`

var _ IUserService = (*UserService)(nil)
