package attach

import (
	"net/url"
	"strings"

	"StroyTrack/internal/cli/model"
)

// legacyPrefixLen длина случайного префикса "xxxxxxxx_", который сервер добавляет к имени.
const legacyPrefixLen = 9

// Normalize приводит оба формата хранения к CommittedAttachment:
// записи вложений и устаревший список имён файлов в самой транзакции.
// Относительные адреса дополняются baseURL сервера.
func Normalize(txID string, records []model.AttachmentRecord, legacy []string, baseURL string) []model.CommittedAttachment {
	out := make([]model.CommittedAttachment, 0, len(records)+len(legacy))
	for _, r := range records {
		txRef := r.TransactionID
		if txRef == "" {
			txRef = txID
		}
		out = append(out, model.CommittedAttachment{
			ID:               r.ID,
			TransactionID:    txRef,
			FileURI:          absoluteURL(baseURL, r.FileURL),
			OriginalFilename: r.OriginalFilename,
			FileType:         r.FileType,
			FileSize:         r.FileSize,
		})
	}
	for _, name := range legacy {
		if name == "" {
			continue
		}
		out = append(out, model.CommittedAttachment{
			ID:               name,
			TransactionID:    txID,
			FileURI:          absoluteURL(baseURL, "/files/legacy/"+url.PathEscape(name)),
			OriginalFilename: legacyDisplayName(name),
			Legacy:           true,
		})
	}
	return out
}

func legacyDisplayName(name string) string {
	if len(name) > legacyPrefixLen && name[legacyPrefixLen-1] == '_' {
		return name[legacyPrefixLen:]
	}
	return name
}

func absoluteURL(base, ref string) string {
	if ref == "" || base == "" || !strings.HasPrefix(ref, "/") {
		return ref
	}
	return strings.TrimRight(base, "/") + ref
}

// FromRecords переводит ответ загрузки в сохранённые вложения.
func FromRecords(txID string, records []model.AttachmentRecord, baseURL string) []model.CommittedAttachment {
	return Normalize(txID, records, nil, baseURL)
}
