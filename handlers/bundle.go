package handlers

import "github.com/gin-gonic/gin"

// HandlerBundle groups the endpoint handlers the router mounts.
type HandlerBundle struct {
	Health gin.HandlerFunc
	Config gin.HandlerFunc

	// Auth endpoints
	GetSession gin.HandlerFunc
	SignIn     gin.HandlerFunc
	SignUp     gin.HandlerFunc
	OAuth      gin.HandlerFunc
	SignOut    gin.HandlerFunc

	// Experience endpoints
	Tags             gin.HandlerFunc
	ListExperiences  gin.HandlerFunc
	Filter           gin.HandlerFunc
	GetExperience    gin.HandlerFunc
	CreateExperience gin.HandlerFunc
	DeleteExperience gin.HandlerFunc
	AddReview        gin.HandlerFunc
	RegisterBooking  gin.HandlerFunc
	CancelBooking    gin.HandlerFunc

	// Account endpoints
	GetAccount    gin.HandlerFunc
	UpdateAccount gin.HandlerFunc
	GetUser       gin.HandlerFunc

	// Messaging endpoints
	Contacts gin.HandlerFunc
	StartDM  gin.HandlerFunc
	SyncChat gin.HandlerFunc
}

// NewHandlerBundle wires the handler structs into a bundle.
func NewHandlerBundle(auth *AuthHandler, exp *ExperienceHandler, tags *TagsHandler, account *AccountHandler, msg *MessagingHandler, config gin.HandlerFunc) *HandlerBundle {
	return &HandlerBundle{
		Health: HealthHandler,
		Config: config,

		GetSession: auth.GetSessionHandler,
		SignIn:     auth.SignInHandler,
		SignUp:     auth.SignUpHandler,
		OAuth:      auth.OAuthHandler,
		SignOut:    auth.SignOutHandler,

		Tags:             tags.GetTagsHandler,
		ListExperiences:  exp.ListExperiencesHandler,
		Filter:           exp.FilterHandler,
		GetExperience:    exp.GetExperienceHandler,
		CreateExperience: exp.CreateExperienceHandler,
		DeleteExperience: exp.DeleteExperienceHandler,
		AddReview:        AddReviewHandler,
		RegisterBooking:  RegisterBookingHandler,
		CancelBooking:    CancelBookingHandler,

		GetAccount:    account.GetAccountHandler,
		UpdateAccount: account.UpdateAccountHandler,
		GetUser:       account.GetUserHandler,

		Contacts: msg.ContactsHandler,
		StartDM:  msg.StartDMHandler,
		SyncChat: msg.SyncChatHandler,
	}
}
