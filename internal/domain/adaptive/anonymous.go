package adaptive

import (
	"crypto/md5"
	"encoding/hex"
	"strconv"
)

// MakeAnonymousUserID вычисляет анонимный идентификатор учащегося для курса.
// Дайджест берётся от access_token, затем user_id, затем course_id, без
// разделителей. MD5 сохраняется ради совместимости с уже созданными записями.
func MakeAnonymousUserID(accessToken string, userID int64, courseID string) string {
	h := md5.New()
	h.Write([]byte(accessToken))
	h.Write([]byte(strconv.FormatInt(userID, 10)))
	h.Write([]byte(courseID))
	return hex.EncodeToString(h.Sum(nil))
}

// AnonymousUserID вызывает MakeAnonymousUserID с токеном из конфигурации.
// Ключ курса приводится к формату Org/Course/Run.
func (c Configuration) AnonymousUserID(userID int64, courseKey string) string {
	return MakeAnonymousUserID(c.settings.AccessToken, userID, DeprecatedCourseID(courseKey))
}
