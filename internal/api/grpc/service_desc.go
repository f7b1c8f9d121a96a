package grpc

import (
	"context"

	"google.golang.org/grpc"
)

const ReservationServiceName = "trailerhub.v1.ReservationService"

// ReservationServiceServer is the server API for ReservationService.
type ReservationServiceServer interface {
	GetQuote(context.Context, *GetQuoteRequest) (*GetQuoteResponse, error)
	CreateReservation(context.Context, *CreateReservationRequest) (*CreateReservationResponse, error)
	TransitionStatus(context.Context, *TransitionStatusRequest) (*RentalResponse, error)
	RetryPayment(context.Context, *RentalIdRequest) (*RetryPaymentResponse, error)
	CapturePayment(context.Context, *CapturePaymentRequest) (*CapturePaymentResponse, error)
	ReportDamage(context.Context, *ReportDamageRequest) (*DamageReportResponse, error)
	RespondToDamageReport(context.Context, *RespondToDamageReportRequest) (*DamageReportResponse, error)
	ListDamageReports(context.Context, *RentalIdRequest) (*ListDamageReportsResponse, error)
	RequestDamagePhotoUpload(context.Context, *RequestDamagePhotoUploadRequest) (*RequestDamagePhotoUploadResponse, error)
	GetAvailability(context.Context, *GetAvailabilityRequest) (*GetAvailabilityResponse, error)
	BlockDates(context.Context, *BlockDatesRequest) (*BlockDatesResponse, error)
	UnblockDates(context.Context, *UnblockDatesRequest) (*Empty, error)
	UpdateWeeklySchedule(context.Context, *UpdateWeeklyScheduleRequest) (*Empty, error)
	GetRental(context.Context, *RentalIdRequest) (*RentalResponse, error)
	ListRentals(context.Context, *ListRentalsRequest) (*ListRentalsResponse, error)
	GetRentalHistory(context.Context, *RentalIdRequest) (*GetRentalHistoryResponse, error)
	SyncPayment(context.Context, *SyncPaymentRequest) (*Empty, error)
	GetNotifications(context.Context, *GetNotificationsRequest) (*GetNotificationsResponse, error)
	MarkNotificationRead(context.Context, *MarkNotificationReadRequest) (*Empty, error)
}

func RegisterReservationServiceServer(s grpc.ServiceRegistrar, srv ReservationServiceServer) {
	s.RegisterService(&ReservationService_ServiceDesc, srv)
}

// unary builds the method descriptor for one RPC, decoding into Req and
// routing through the server's interceptor chain.
func unary[Req any, Resp any](method string, call func(ReservationServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	fullMethod := "/" + ReservationServiceName + "/" + method
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(ReservationServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(ReservationServiceServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var ReservationService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ReservationServiceName,
	HandlerType: (*ReservationServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("GetQuote", ReservationServiceServer.GetQuote),
		unary("CreateReservation", ReservationServiceServer.CreateReservation),
		unary("TransitionStatus", ReservationServiceServer.TransitionStatus),
		unary("RetryPayment", ReservationServiceServer.RetryPayment),
		unary("CapturePayment", ReservationServiceServer.CapturePayment),
		unary("ReportDamage", ReservationServiceServer.ReportDamage),
		unary("RespondToDamageReport", ReservationServiceServer.RespondToDamageReport),
		unary("ListDamageReports", ReservationServiceServer.ListDamageReports),
		unary("RequestDamagePhotoUpload", ReservationServiceServer.RequestDamagePhotoUpload),
		unary("GetAvailability", ReservationServiceServer.GetAvailability),
		unary("BlockDates", ReservationServiceServer.BlockDates),
		unary("UnblockDates", ReservationServiceServer.UnblockDates),
		unary("UpdateWeeklySchedule", ReservationServiceServer.UpdateWeeklySchedule),
		unary("GetRental", ReservationServiceServer.GetRental),
		unary("ListRentals", ReservationServiceServer.ListRentals),
		unary("GetRentalHistory", ReservationServiceServer.GetRentalHistory),
		unary("SyncPayment", ReservationServiceServer.SyncPayment),
		unary("GetNotifications", ReservationServiceServer.GetNotifications),
		unary("MarkNotificationRead", ReservationServiceServer.MarkNotificationRead),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "trailerhub/v1/reservation.proto",
}
