package api

import (
	"encoding/json"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/npezzotti/workhub/internal/auth"
	"github.com/npezzotti/workhub/internal/database"
	"github.com/npezzotti/workhub/internal/types"
)

type RegisterRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	FullName     string `json:"full_name"`
	IsFreelancer bool   `json:"is_freelancer"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	UserId       int    `json:"user_id"`
	Email        string `json:"email"`
	FullName     string `json:"full_name"`
	IsFreelancer bool   `json:"is_freelancer"`
}

type UpdateUserRequest struct {
	FullName string `json:"full_name"`
}

func (s *WorkhubApp) register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, NewBadRequestError())
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" || strings.TrimSpace(req.FullName) == "" {
		s.writeError(w, NewApiError(http.StatusBadRequest, "email, password and full_name are required"))
		return
	}

	if _, err := mail.ParseAddress(req.Email); err != nil {
		s.writeError(w, NewApiError(http.StatusBadRequest, "invalid email address"))
		return
	}

	pwdHash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	newUser, err := s.db.CreateUser(database.CreateUserParams{
		EmailAddress: req.Email,
		FullName:     strings.TrimSpace(req.FullName),
		PasswordHash: pwdHash,
		IsFreelancer: req.IsFreelancer,
	})
	if err != nil {
		if database.IsUniqueViolation(err) {
			s.writeError(w, NewApiError(http.StatusBadRequest, "email already registered"))
			return
		}
		s.writeError(w, NewInternalServerError(err))
		return
	}

	s.writeJson(w, http.StatusCreated, toUser(newUser))
}

func (s *WorkhubApp) login(w http.ResponseWriter, r *http.Request) {
	var lr LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&lr); err != nil {
		s.writeError(w, NewBadRequestError())
		return
	}

	if lr.Email == "" || lr.Password == "" {
		s.writeError(w, NewBadRequestError())
		return
	}

	dbUser, err := s.db.GetUserByEmail(lr.Email)
	if err != nil {
		errResp := lookupError(err, "")
		if errResp.StatusCode == http.StatusNotFound {
			errResp = NewApiError(http.StatusUnauthorized, "incorrect email or password")
		}
		s.writeError(w, errResp)
		return
	}

	if !auth.VerifyPassword(dbUser.PasswordHash, lr.Password) {
		s.writeError(w, NewApiError(http.StatusUnauthorized, "incorrect email or password"))
		return
	}

	token, err := s.issuer.Issue(dbUser.EmailAddress, s.tokenTTL)
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	http.SetCookie(w, createJwtCookie(token, s.tokenTTL))

	s.writeJson(w, http.StatusOK, TokenResponse{
		AccessToken:  token,
		TokenType:    "bearer",
		UserId:       dbUser.Id,
		Email:        dbUser.EmailAddress,
		FullName:     dbUser.FullName,
		IsFreelancer: dbUser.IsFreelancer,
	})
}

func createJwtCookie(tokenString string, exp time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     tokenCookieKey,
		Value:    tokenString,
		Path:     "/",
		Expires:  time.Now().Add(exp),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	}
}

func (s *WorkhubApp) logout(w http.ResponseWriter, _ *http.Request) {
	// overwrite the cookie with an expired one
	http.SetCookie(w, createJwtCookie("", -time.Hour))
	w.WriteHeader(http.StatusNoContent)
}

func (s *WorkhubApp) currentUser(w http.ResponseWriter, r *http.Request) {
	user, errResp := s.currentUserRecord(r)
	if errResp != nil {
		s.writeError(w, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, toUser(user))
}

func (s *WorkhubApp) updateCurrentUser(w http.ResponseWriter, r *http.Request) {
	user, errResp := s.currentUserRecord(r)
	if errResp != nil {
		s.writeError(w, errResp)
		return
	}

	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, NewBadRequestError())
		return
	}

	fullName := strings.TrimSpace(req.FullName)
	if fullName == "" {
		s.writeError(w, NewApiError(http.StatusBadRequest, "full_name is required"))
		return
	}

	updated, err := s.db.UpdateUserName(user.Id, fullName)
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	s.writeJson(w, http.StatusOK, toUser(updated))
}

func (s *WorkhubApp) userProfile(w http.ResponseWriter, r *http.Request) {
	userId, ok := pathId(r, "id")
	if !ok {
		s.writeError(w, NewBadRequestError())
		return
	}

	user, err := s.db.GetUserById(userId)
	if err != nil {
		s.writeError(w, lookupError(err, "user not found"))
		return
	}

	profile := toUser(user)
	profile.EmailAddress = ""
	if user.IsFreelancer {
		completed, err := s.db.CountCompletedOrders(user.Id)
		if err != nil {
			s.writeError(w, NewInternalServerError(err))
			return
		}
		profile.CompletedOrders = &completed
	}

	s.writeJson(w, http.StatusOK, profile)
}

func (s *WorkhubApp) userReviews(w http.ResponseWriter, r *http.Request) {
	userId, ok := pathId(r, "id")
	if !ok {
		s.writeError(w, NewBadRequestError())
		return
	}

	limit, offset, ok := pagination(r, 10, 50)
	if !ok {
		s.writeError(w, NewBadRequestError())
		return
	}

	reviews, err := s.db.ListReviewsForUser(userId, limit, offset)
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	res := make([]types.Review, 0, len(reviews))
	for _, rv := range reviews {
		res = append(res, toReview(rv))
	}

	s.writeJson(w, http.StatusOK, res)
}
