package structure

import (
	"fmt"
	"net/http"

	"github.com/programme-lv/classroom/srvcerror"
)

const ErrCodeEmptyStructure = "empty_structure"

func newErrEmptyStructure() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeEmptyStructure,
		"structure with questions required",
	).SetHttpStatusCode(http.StatusBadRequest)
}

const ErrCodeEmptyLabel = "empty_label"

func newErrEmptyLabel(where string) *srvcerror.Error {
	return srvcerror.New(
		ErrCodeEmptyLabel,
		fmt.Sprintf("label required (%s)", where),
	).SetHttpStatusCode(http.StatusBadRequest)
}
