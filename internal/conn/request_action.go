package conn

type RequestAction string

const (
	// row actions
	RequestActionCreateRow RequestAction = "createRow"
	RequestActionUpdateRow RequestAction = "updateRow"
	RequestActionDeleteRow RequestAction = "deleteRow"

	// heap actions
	RequestActionAddString     RequestAction = "addString"
	RequestActionModifyString  RequestAction = "modifyString"
	RequestActionRemoveString  RequestAction = "removeString"
	RequestActionAddBlob       RequestAction = "addBlob"
	RequestActionModifyBlob    RequestAction = "modifyBlob"
	RequestActionRemoveBlob    RequestAction = "removeBlob"
	RequestActionAddGuid       RequestAction = "addGuid"
	RequestActionAddUserString RequestAction = "addUserString"

	// session actions
	RequestActionStats  RequestAction = "stats"
	RequestActionCommit RequestAction = "commit"
)

func (action RequestAction) IsReadOnly() bool {
	return action == RequestActionStats
}
