package nse

import (
	"context"
	"encoding/json"
	"io"
	"strconv"

	"github.com/mfdesk/mfgateway/common"
	"github.com/mfdesk/mfgateway/exchanges/order"
)

// SubmitOrder validates and places a single order, returning the generated
// order reference alongside the broker response
func (n *NSE) SubmitOrder(ctx context.Context, s *order.Submit) (*SubmitResponse, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	detail := n.transactionDetail(s)
	data, err := n.PlaceOrder(ctx, &OrderEntryRequest{TransactionDetails: []TransactionDetail{detail}})
	if err != nil {
		return nil, err
	}
	return &SubmitResponse{RefNumber: detail.OrderRefNumber, Data: data}, nil
}

// OrderRefNumber fills in the order reference the broker will see when the
// caller has not chosen one
func (n *NSE) OrderRefNumber(s *order.Submit) string {
	if s.RefNumber == "" {
		s.RefNumber = orderRefPrefix + strconv.FormatInt(common.UnixMillis(n.now()), 10)
	}
	return s.RefNumber
}

func (n *NSE) transactionDetail(s *order.Submit) TransactionDetail {
	txType := s.TransactionType
	if txType == "" {
		txType = order.Purchase
	}
	buySell := s.BuySellType
	if buySell == "" {
		buySell = order.Fresh
	}
	return TransactionDetail{
		OrderRefNumber:    n.OrderRefNumber(s),
		SchemeCode:        s.SchemeCode,
		TrxnType:          string(txType),
		BuySellType:       string(buySell),
		ClientCode:        s.ClientCode,
		DematPhysical:     dematCDSL,
		OrderAmount:       s.Amount.String(),
		FolioNo:           s.FolioNo,
		Remarks:           orDefault(s.Remarks, defaultOrderRemarks),
		KYCFlag:           flagYes,
		EUINNumber:        defaultEUIN,
		EUINDeclaration:   flagYes,
		MinRedemptionFlag: flagNo,
		DPCFlag:           flagYes,
		AllUnits:          flagNo,
		BankRefNo:         bankRefPrefix + strconv.FormatInt(common.UnixMillis(n.now()), 10),
		MobileNo:          orDefault(s.MobileNo, defaultMobileNo),
		Email:             orDefault(s.Email, defaultEmail),
		MandateID:         s.MandateID,
	}
}

// CancelBatchOrders cancels up to 50 orders in a single request
func (n *NSE) CancelBatchOrders(ctx context.Context, o []order.Cancel) (json.RawMessage, error) {
	if err := order.ValidateBatch(o); err != nil {
		return nil, err
	}
	req := CancellationRequest{CanData: make([]CancelDetail, len(o))}
	for i := range o {
		req.CanData[i] = CancelDetail{
			ClientCode: o[i].ClientCode,
			OrderNo:    o[i].OrderNo,
			Remarks:    o[i].Remarks,
		}
	}
	return n.CancelExistingOrders(ctx, &req)
}

// GetOrderStatus fetches order statuses for a window of at most seven days
func (n *NSE) GetOrderStatus(ctx context.Context, s *order.StatusRequest) (json.RawMessage, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return n.GetOrderStatusReport(ctx, &OrderStatusReportRequest{
		FromDate:     s.FromDate,
		ToDate:       s.ToDate,
		TransType:    s.TransType,
		OrderType:    s.OrderType,
		SubOrderType: s.SubOrderType,
	})
}

// DownloadSchemeMaster streams the scheme master file into w
func (n *NSE) DownloadSchemeMaster(ctx context.Context, w io.Writer) error {
	return n.DownloadMaster(ctx, FileTypeSchemeMaster, w)
}
