package model

import (
	apperrors "meshforge/backend/common/errors"

	"meshforge/backend/common"

	"github.com/burugo/thing"
)

// User is the account record. Callers of the build core only ever see the
// opaque user id; everything else here exists for the auth glue.
// Sensitive fields like Password must not appear in API responses.
type User struct {
	thing.BaseModel
	Username    string `db:"username,unique" json:"username"`
	Password    string `db:"password" json:"-"`
	DisplayName string `db:"display_name" json:"display_name"`
	Role        int    `db:"role" json:"role"`
	Status      int    `db:"status" json:"status"`
	Email       string `db:"email,index" json:"email"`
}

func (u *User) TableName() string {
	return "users"
}

var UserDB *thing.Thing[*User]

// UserInit initializes UserDB during InitDB.
func UserInit() error {
	var err error
	UserDB, err = thing.Use[*User]()
	if err != nil {
		return err
	}
	return nil
}

func GetUserById(id int64) (*User, error) {
	if id == 0 {
		return nil, apperrors.New(apperrors.ErrEmptyID, "empty user id")
	}
	user, err := UserDB.ByID(id)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrUserNotFound, "user not found")
	}
	return user, nil
}

func (user *User) Insert() error {
	if user.Password != "" {
		var err error
		user.Password, err = common.Password2Hash(user.Password)
		if err != nil {
			return err
		}
	}
	return UserDB.Save(user)
}

func (user *User) Update(updatePassword bool) error {
	if updatePassword {
		var err error
		user.Password, err = common.Password2Hash(user.Password)
		if err != nil {
			return err
		}
	}
	return UserDB.Save(user)
}

// ValidateAndFill checks the credentials held in user and, when valid,
// replaces user with the stored record.
func (user *User) ValidateAndFill() error {
	if user.Username == "" || user.Password == "" {
		return apperrors.New(apperrors.ErrEmptyCredentials, "username or password is empty")
	}
	users, err := UserDB.Where("username = ?", user.Username).Fetch(0, 1)
	if err != nil || len(users) == 0 {
		return apperrors.New(apperrors.ErrInvalidCredentials, "invalid username or password")
	}
	found := users[0]
	okay := common.ValidatePasswordAndHash(user.Password, found.Password)
	if !okay {
		return apperrors.New(apperrors.ErrInvalidCredentials, "invalid username or password")
	}
	if found.Status != common.UserStatusEnabled {
		return apperrors.New(apperrors.ErrUserDisabled, "user is disabled")
	}
	*user = *found
	return nil
}

func GetAllUsers() ([]*User, error) {
	return UserDB.Order("id ASC").All()
}

func IsUsernameAlreadyTaken(username string) bool {
	users, err := UserDB.Where("username = ?", username).Fetch(0, 1)
	return err == nil && len(users) > 0
}
